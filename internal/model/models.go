package model

// All lists every persisted entity, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Category{}, &Product{}, &StockMovement{},
		&Customer{}, &Supplier{},
		&NcfSequence{}, &DocumentCounter{},
		&Sale{}, &SaleItem{},
		&PurchaseOrder{}, &PurchaseOrderItem{},
		&RncRegistry{}, &AuditLog{}, &BusinessSettings{},
		&Driver{}, &Delivery{}, &WhatsAppMessage{},
	}
}
