package repository

import (
	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditFilter struct {
	Entity     string
	EntityID   string
	Action     string
	UserID     *uuid.UUID
	Range      DateRange
	Pagination model.Pagination
}

type AuditRepository interface {
	Create(tx *gorm.DB, entry *model.AuditLog) error
	List(filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(tx *gorm.DB, entry *model.AuditLog) error {
	return conn(r.db, tx).Create(entry).Error
}

func (r *auditRepo) List(f AuditFilter) ([]model.AuditLog, int64, error) {
	p := f.Pagination.Normalize()
	q := f.Range.apply(r.db.Model(&model.AuditLog{}), "created_at")
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.AuditLog
	err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&logs).Error
	return logs, total, err
}
