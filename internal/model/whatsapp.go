package model

import "github.com/google/uuid"

type MessageKind string

const (
	MessageReceipt   MessageKind = "RECEIPT"
	MessageBroadcast MessageKind = "BROADCAST"
	MessageDirect    MessageKind = "DIRECT"
)

type MessageStatus string

const (
	MessageSent   MessageStatus = "SENT"
	MessageFailed MessageStatus = "FAILED"
)

type WhatsAppMessage struct {
	BaseModel
	Phone      string        `gorm:"type:varchar(20);not null;index" json:"phone"`
	Body       string        `gorm:"type:text;not null" json:"body"`
	Kind       MessageKind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	Status     MessageStatus `gorm:"type:varchar(20);not null" json:"status"`
	ProviderID string        `gorm:"type:varchar(100)" json:"provider_id,omitempty"`
	Error      string        `gorm:"type:text" json:"error,omitempty"`
	SaleID     *uuid.UUID    `gorm:"type:uuid" json:"sale_id,omitempty"`
	CustomerID *uuid.UUID    `gorm:"type:uuid" json:"customer_id,omitempty"`
	SentByID   *uuid.UUID    `gorm:"type:uuid" json:"sent_by_id,omitempty"`
}

func (WhatsAppMessage) TableName() string {
	return "whatsapp_messages"
}
