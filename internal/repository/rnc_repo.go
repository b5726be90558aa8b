package repository

import (
	"go-pos-rd/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RncRepository interface {
	FindByRNC(rnc string) (*model.RncRegistry, error)
	Search(name string, limit int) ([]model.RncRegistry, error)
	UpsertBatch(records []model.RncRegistry) error
	Count() (int64, error)
}

type rncRepo struct {
	db *gorm.DB
}

func NewRncRepo(db *gorm.DB) RncRepository {
	return &rncRepo{db}
}

func (r *rncRepo) FindByRNC(rnc string) (*model.RncRegistry, error) {
	var rec model.RncRegistry
	if err := r.db.Where("rnc = ?", rnc).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *rncRepo) Search(name string, limit int) ([]model.RncRegistry, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var recs []model.RncRegistry
	like := likePattern(name)
	err := r.db.Where("LOWER(name) LIKE ? OR LOWER(commercial_name) LIKE ?", like, like).
		Order("name").Limit(limit).Find(&recs).Error
	return recs, err
}

func (r *rncRepo) UpsertBatch(records []model.RncRegistry) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rnc"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "commercial_name", "category", "payment_regime", "status", "activity", "updated_at",
		}),
	}).Create(&records).Error
}

func (r *rncRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.RncRegistry{}).Count(&n).Error
	return n, err
}
