package repository

import (
	"go-pos-rd/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettingsRepository interface {
	// Get returns the settings row, creating it with defaults on first use.
	Get() (*model.BusinessSettings, error)
	Save(settings *model.BusinessSettings) error
}

type settingsRepo struct {
	db       *gorm.DB
	defaults model.BusinessSettings
}

func NewSettingsRepo(db *gorm.DB, itbisRate decimal.Decimal, ncfAlert int64) SettingsRepository {
	return &settingsRepo{
		db: db,
		defaults: model.BusinessSettings{
			ID:                model.SettingsID,
			BusinessName:      "Mi Negocio",
			ITBISRate:         itbisRate,
			Currency:          "DOP",
			ReceiptFooter:     "¡Gracias por su compra!",
			NcfAlertThreshold: ncfAlert,
		},
	}
}

func (r *settingsRepo) Get() (*model.BusinessSettings, error) {
	settings := r.defaults
	err := r.db.Where(model.BusinessSettings{ID: model.SettingsID}).
		Attrs(r.defaults).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Save(settings *model.BusinessSettings) error {
	settings.ID = model.SettingsID
	return r.db.Save(settings).Error
}
