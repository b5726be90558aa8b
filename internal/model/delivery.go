package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Driver struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Vehicle  string `gorm:"type:varchar(100)" json:"vehicle,omitempty"`
	Plate    string `gorm:"type:varchar(20)" json:"plate,omitempty"`
	IsActive bool   `gorm:"not null" json:"is_active"`
	// Filled by list queries only.
	ActiveDeliveries int64 `gorm:"-" json:"active_deliveries"`
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryAssigned, DeliveryCancelled},
	DeliveryAssigned:  {DeliveryInTransit, DeliveryCancelled},
	DeliveryInTransit: {DeliveryDelivered},
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryAssigned, DeliveryInTransit, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

type Delivery struct {
	BaseModel
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale         *Sale           `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	CustomerID   *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	DriverID     *uuid.UUID      `gorm:"type:uuid;index" json:"driver_id,omitempty"`
	Driver       *Driver         `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Address      string          `gorm:"type:text;not null" json:"address"`
	Phone        string          `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Status       DeliveryStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	Fee          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"fee"`
	Notes        string          `gorm:"type:text" json:"notes,omitempty"`
	AssignedAt   *time.Time      `json:"assigned_at,omitempty"`
	DispatchedAt *time.Time      `json:"dispatched_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}
