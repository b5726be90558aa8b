package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsID is the primary key of the single BusinessSettings row.
const SettingsID = 1

type BusinessSettings struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BusinessName      string          `gorm:"type:varchar(255);not null;default:''" json:"business_name"`
	RNC               string          `gorm:"column:rnc;type:varchar(11)" json:"rnc"`
	Address           string          `gorm:"type:text" json:"address"`
	Phone             string          `gorm:"type:varchar(20)" json:"phone"`
	Email             string          `gorm:"type:varchar(255)" json:"email"`
	LogoURL           string          `gorm:"type:text" json:"logo_url"`
	ITBISRate         decimal.Decimal `gorm:"column:itbis_rate;type:numeric(5,4);not null;default:0.18" json:"itbis_rate"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'DOP'" json:"currency"`
	ReceiptFooter     string          `gorm:"type:text" json:"receipt_footer"`
	NcfAlertThreshold int64           `gorm:"not null;default:50" json:"ncf_alert_threshold"`
	UpdatedAt         time.Time       `json:"updated_at"`
	UpdatedBy         string          `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
}

func (BusinessSettings) TableName() string {
	return "business_settings"
}
