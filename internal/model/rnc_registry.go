package model

import "time"

// RncRegistry is a row of the DGII taxpayer registry dump.
type RncRegistry struct {
	RNC            string    `gorm:"column:rnc;type:varchar(11);primaryKey" json:"rnc"`
	Name           string    `gorm:"type:varchar(255);not null;index" json:"name"`
	CommercialName string    `gorm:"type:varchar(255)" json:"commercial_name,omitempty"`
	Category       string    `gorm:"type:varchar(255)" json:"category,omitempty"`
	PaymentRegime  string    `gorm:"type:varchar(50)" json:"payment_regime,omitempty"`
	Status         string    `gorm:"type:varchar(30)" json:"status,omitempty"`
	Activity       string    `gorm:"type:varchar(255)" json:"activity,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (RncRegistry) TableName() string {
	return "rnc_registries"
}
