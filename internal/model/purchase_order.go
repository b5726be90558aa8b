package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "DRAFT"
	PurchaseOrdered   PurchaseStatus = "ORDERED"
	PurchaseReceived  PurchaseStatus = "RECEIVED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchaseDraft:   {PurchaseOrdered, PurchaseCancelled},
	PurchaseOrdered: {PurchaseReceived, PurchaseCancelled},
}

func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range purchaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ExpenseTypes are the DGII 606 "Tipo de Bienes y Servicios Comprados" codes.
var ExpenseTypes = map[string]string{
	"01": "Gastos de personal",
	"02": "Gastos por trabajos, suministros y servicios",
	"03": "Arrendamientos",
	"04": "Gastos de activos fijos",
	"05": "Gastos de representación",
	"06": "Otras deducciones admitidas",
	"07": "Gastos financieros",
	"08": "Gastos extraordinarios",
	"09": "Compras y gastos que formarán parte del costo de venta",
	"10": "Adquisiciones de activos",
	"11": "Gastos de seguros",
}

// DefaultExpenseType is merchandise bought for resale.
const DefaultExpenseType = "09"

// IsGoodsExpense reports whether the 606 amount belongs in the goods column
// rather than services.
func IsGoodsExpense(code string) bool {
	return code == "04" || code == "09" || code == "10"
}

// PurchasePaymentForms are the DGII 606 "Forma de Pago" codes.
var PurchasePaymentForms = map[string]string{
	"01": "Efectivo",
	"02": "Cheques/Transferencias/Depósito",
	"03": "Tarjeta Crédito/Débito",
	"04": "Compra a Crédito",
	"05": "Permuta",
	"06": "Notas de Crédito",
	"07": "Mixto",
}

type PurchaseOrder struct {
	BaseModel
	Number        string              `gorm:"type:varchar(20);uniqueIndex;not null" json:"number"`
	SupplierID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status        PurchaseStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal      decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	ITBIS         decimal.Decimal     `gorm:"column:itbis;type:numeric(14,2);not null;default:0" json:"itbis"`
	Total         decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	SupplierNCF   *string             `gorm:"column:supplier_ncf;type:varchar(19)" json:"supplier_ncf,omitempty"`
	InvoiceDate   *time.Time          `json:"invoice_date,omitempty"`
	PaymentDate   *time.Time          `json:"payment_date,omitempty"`
	PaymentMethod string              `gorm:"type:varchar(2);not null;default:'04'" json:"payment_method"`
	ExpenseType   string              `gorm:"type:varchar(2);not null;default:'09'" json:"expense_type"`
	ExpectedDate  *time.Time          `json:"expected_date,omitempty"`
	Notes         string              `gorm:"type:text" json:"notes,omitempty"`
	OrderedAt     *time.Time          `json:"ordered_at,omitempty"`
	ReceivedAt    *time.Time          `json:"received_at,omitempty"`
	ReceivedByID  *uuid.UUID          `gorm:"type:uuid" json:"received_by_id,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	Items         []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	BaseModel
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_cost"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	ITBIS           decimal.Decimal `gorm:"column:itbis;type:numeric(14,2);not null;default:0" json:"itbis"`
}
