package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditCreate  = "CREATE"
	AuditUpdate  = "UPDATE"
	AuditDelete  = "DELETE"
	AuditLogin   = "LOGIN"
	AuditLogout  = "LOGOUT"
	AuditCancel  = "CANCEL"
	AuditReceive = "RECEIVE"
	AuditAdjust  = "ADJUST"
	AuditExport  = "EXPORT"
)

// AuditLog is append-only, so it carries no soft delete.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	UserEmail string     `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	Action    string     `gorm:"type:varchar(30);not null;index" json:"action"`
	Entity    string     `gorm:"type:varchar(50);not null;index" json:"entity"`
	EntityID  string     `gorm:"type:varchar(64);index" json:"entity_id,omitempty"`
	Details   string     `gorm:"type:text" json:"details,omitempty"`
	IPAddress string     `gorm:"column:ip_address;type:varchar(64)" json:"ip_address,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
