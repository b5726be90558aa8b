package model

import "fmt"

// DocumentCounter hands out gap-free document numbers per name.
type DocumentCounter struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

const (
	CounterSale          = "sale"
	CounterPurchaseOrder = "purchase_order"
)

func SaleNumber(n int64) string {
	return fmt.Sprintf("V-%08d", n)
}

func PurchaseOrderNumber(n int64) string {
	return fmt.Sprintf("OC-%06d", n)
}
