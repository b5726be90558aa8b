package model

import "github.com/shopspring/decimal"

type DocumentType string

const (
	DocRNC    DocumentType = "RNC"
	DocCedula DocumentType = "CEDULA"
	DocNone   DocumentType = "NONE"
)

type Customer struct {
	BaseModel
	Name           string          `gorm:"type:varchar(255);not null;index" json:"name"`
	DocumentType   DocumentType    `gorm:"type:varchar(10);not null;default:'NONE'" json:"document_type"`
	DocumentNumber *string         `gorm:"type:varchar(11);uniqueIndex:idx_customers_document_number,where:deleted_at IS NULL" json:"document_number,omitempty"`
	Email          string          `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone          string          `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address        string          `gorm:"type:text" json:"address,omitempty"`
	CreditLimit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"credit_limit"`
	Balance        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
}

// HasTaxID reports whether the customer can receive a crédito fiscal receipt.
func (c *Customer) HasTaxID() bool {
	return c.DocumentNumber != nil && *c.DocumentNumber != "" && c.DocumentType != DocNone
}

// AvailableCredit is limit minus balance; zero limit means no credit.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.Balance)
}
