package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NcfSequenceRepository interface {
	Create(seq *model.NcfSequence) error
	Update(seq *model.NcfSequence) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.NcfSequence, error)
	FindAll() ([]model.NcfSequence, error)
	FindByType(t model.NcfType) ([]model.NcfSequence, error)
	// FindUsable returns the active, unexpired sequence of type t with the
	// lowest range first, so ranges are drained in order.
	FindUsable(tx *gorm.DB, t model.NcfType, now time.Time) (*model.NcfSequence, error)
	// Advance bumps current_number by one if the range still has room and
	// reports whether a row was updated.
	Advance(tx *gorm.DB, id uuid.UUID) (bool, error)
}

type ncfSequenceRepo struct {
	db *gorm.DB
}

func NewNcfSequenceRepo(db *gorm.DB) NcfSequenceRepository {
	return &ncfSequenceRepo{db}
}

func (r *ncfSequenceRepo) Create(seq *model.NcfSequence) error {
	return r.db.Create(seq).Error
}

// Update writes the editable columns only, so a concurrent allocation's
// current_number is never overwritten.
func (r *ncfSequenceRepo) Update(seq *model.NcfSequence) error {
	return r.db.Model(seq).
		Select("description", "max_number", "expires_at", "is_active", "updated_by", "updated_at").
		Updates(seq).Error
}

func (r *ncfSequenceRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.NcfSequence, error) {
	var seq model.NcfSequence
	if err := conn(r.db, tx).First(&seq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *ncfSequenceRepo) FindAll() ([]model.NcfSequence, error) {
	var seqs []model.NcfSequence
	err := r.db.Order("type, start_number").Find(&seqs).Error
	return seqs, err
}

func (r *ncfSequenceRepo) FindByType(t model.NcfType) ([]model.NcfSequence, error) {
	var seqs []model.NcfSequence
	err := r.db.Where("type = ?", t).Order("start_number").Find(&seqs).Error
	return seqs, err
}

func (r *ncfSequenceRepo) FindUsable(tx *gorm.DB, t model.NcfType, now time.Time) (*model.NcfSequence, error) {
	var seq model.NcfSequence
	err := conn(r.db, tx).
		Where("type = ? AND is_active = ? AND current_number < max_number", t, true).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("start_number").
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *ncfSequenceRepo) Advance(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(r.db, tx).Model(&model.NcfSequence{}).
		Where("id = ? AND current_number < max_number", id).
		Updates(map[string]interface{}{
			"current_number": gorm.Expr("current_number + 1"),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
