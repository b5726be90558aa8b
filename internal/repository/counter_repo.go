package repository

import (
	"go-pos-rd/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepository issues gap-free document numbers. Next must run inside
// the transaction that uses the number so a rollback returns it.
type CounterRepository interface {
	Next(tx *gorm.DB, name string) (int64, error)
}

type counterRepo struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) CounterRepository {
	return &counterRepo{db}
}

func (r *counterRepo) Next(tx *gorm.DB, name string) (int64, error) {
	db := conn(r.db, tx)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.DocumentCounter{Name: name, Value: 0}).Error
	if err != nil {
		return 0, err
	}
	// The row lock taken by this UPDATE serializes concurrent callers until
	// their transactions end.
	err = db.Model(&model.DocumentCounter{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1")).Error
	if err != nil {
		return 0, err
	}
	var counter model.DocumentCounter
	if err := db.First(&counter, "name = ?", name).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
