package repository

import (
	"go-pos-rd/internal/model"

	"gorm.io/gorm"
)

type WhatsAppRepository interface {
	Create(msg *model.WhatsAppMessage) error
	List(kind model.MessageKind, phone string, p model.Pagination) ([]model.WhatsAppMessage, int64, error)
}

type whatsAppRepo struct {
	db *gorm.DB
}

func NewWhatsAppRepo(db *gorm.DB) WhatsAppRepository {
	return &whatsAppRepo{db}
}

func (r *whatsAppRepo) Create(msg *model.WhatsAppMessage) error {
	return r.db.Create(msg).Error
}

func (r *whatsAppRepo) List(kind model.MessageKind, phone string, p model.Pagination) ([]model.WhatsAppMessage, int64, error) {
	p = p.Normalize()
	q := r.db.Model(&model.WhatsAppMessage{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if phone != "" {
		q = q.Where("phone = ?", phone)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var msgs []model.WhatsAppMessage
	err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&msgs).Error
	return msgs, total, err
}
