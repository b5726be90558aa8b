package model

type Supplier struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	RNC         string `gorm:"column:rnc;type:varchar(11);uniqueIndex:idx_suppliers_rnc,where:deleted_at IS NULL;not null" json:"rnc"`
	ContactName string `gorm:"type:varchar(255)" json:"contact_name,omitempty"`
	Phone       string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email       string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address     string `gorm:"type:text" json:"address,omitempty"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}
