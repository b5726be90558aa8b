package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementSale       MovementType = "SALE"
	MovementSaleCancel MovementType = "SALE_CANCEL"
	MovementPurchase   MovementType = "PURCHASE"
)

// StockMovement is the inventory ledger. Quantity is the signed change applied
// to the product and StockAfter the resulting stock.
type StockMovement struct {
	BaseModel
	ProductID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type          MovementType `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity      int          `gorm:"not null" json:"quantity"`
	StockAfter    int          `gorm:"not null" json:"stock_after"`
	ReferenceType string       `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID   `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note          string       `gorm:"type:text" json:"note,omitempty"`
	UserID        *uuid.UUID   `gorm:"type:uuid" json:"user_id,omitempty"`
	User          *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

const (
	RefSale          = "SALE"
	RefPurchaseOrder = "PURCHASE_ORDER"
)
