package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCredit   PaymentMethod = "CREDIT"
)

// PaymentMethodLabel is the Spanish label printed on receipts.
func PaymentMethodLabel(m PaymentMethod) string {
	switch m {
	case PaymentCash:
		return "Efectivo"
	case PaymentCard:
		return "Tarjeta"
	case PaymentTransfer:
		return "Transferencia"
	case PaymentCredit:
		return "Crédito"
	}
	return string(m)
}

// Sale keeps the buyer's name and tax document as they were when the NCF was
// issued; fiscal reports and receipts read these, not the live customer row.
type Sale struct {
	BaseModel
	SaleNumber           string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"sale_number"`
	NCF                  string          `gorm:"column:ncf;type:varchar(19);uniqueIndex;not null" json:"ncf"`
	NcfType              NcfType         `gorm:"type:varchar(3);not null" json:"ncf_type"`
	CustomerID           *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer             *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	CustomerName         string          `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerDocumentType DocumentType    `gorm:"type:varchar(10)" json:"customer_document_type,omitempty"`
	CustomerDocument     string          `gorm:"type:varchar(11)" json:"customer_document,omitempty"`
	CashierID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier              *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	Status               SaleStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod        PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Subtotal             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Discount             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	ITBIS                decimal.Decimal `gorm:"column:itbis;type:numeric(14,2);not null" json:"itbis"`
	Total                decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	AmountPaid           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_paid"`
	Change               decimal.Decimal `gorm:"column:change_due;type:numeric(14,2);not null;default:0" json:"change"`
	Notes                string          `gorm:"type:text" json:"notes,omitempty"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason         string          `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledByID        *uuid.UUID      `gorm:"type:uuid" json:"cancelled_by_id,omitempty"`
	Items                []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

type SaleItem struct {
	BaseModel
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	SKU         string          `gorm:"column:sku;type:varchar(50)" json:"sku"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Taxable     bool            `gorm:"not null" json:"taxable"`
	ITBIS       decimal.Decimal `gorm:"column:itbis;type:numeric(14,2);not null" json:"itbis"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
}
