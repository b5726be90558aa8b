package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// Filled by list queries only.
	ProductCount int64 `gorm:"-" json:"product_count"`
}

type Product struct {
	BaseModel
	SKU        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Barcode    *string         `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
	Name       string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Price      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Cost       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	MinStock   int             `gorm:"not null;default:0" json:"min_stock"`
	Unit       string          `gorm:"type:varchar(20)" json:"unit"`
	Taxable    bool            `gorm:"not null" json:"taxable"`
	IsActive   bool            `gorm:"not null" json:"is_active"`
}

// IsLowStock uses the product's own minimum when set, otherwise the business
// default.
func (p *Product) IsLowStock(defaultMin int) bool {
	min := p.MinStock
	if min <= 0 {
		min = defaultMin
	}
	return p.Stock <= min
}
