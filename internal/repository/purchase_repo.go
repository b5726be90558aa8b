package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseFilter struct {
	Status     model.PurchaseStatus
	SupplierID *uuid.UUID
	Range      DateRange
	Pagination model.Pagination
}

type PurchaseOrderRepository interface {
	Create(tx *gorm.DB, po *model.PurchaseOrder) error
	// ReplaceItems rewrites the order header and its items.
	ReplaceItems(tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	List(filter PurchaseFilter) ([]model.PurchaseOrder, int64, error)
	// Transition moves the order from one status to another, applying extra
	// column updates; ErrStaleState when the order was not in from.
	Transition(tx *gorm.DB, id uuid.UUID, from, to model.PurchaseStatus, fields map[string]interface{}) error
	// ReceivedForPeriod lists received orders whose supplier invoice date
	// falls in the range.
	ReceivedForPeriod(r DateRange) ([]model.PurchaseOrder, error)
}

type purchaseOrderRepo struct {
	db *gorm.DB
}

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db}
}

func (r *purchaseOrderRepo) Create(tx *gorm.DB, po *model.PurchaseOrder) error {
	return conn(r.db, tx).Omit("Supplier").Create(po).Error
}

func (r *purchaseOrderRepo) ReplaceItems(tx *gorm.DB, po *model.PurchaseOrder) error {
	db := conn(r.db, tx)
	if err := db.Unscoped().Where("purchase_order_id = ?", po.ID).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	for i := range po.Items {
		po.Items[i].ID = uuid.Nil
		po.Items[i].PurchaseOrderID = po.ID
	}
	if len(po.Items) > 0 {
		if err := db.Omit("Product").Create(&po.Items).Error; err != nil {
			return err
		}
	}
	return db.Omit("Supplier", "Items").Save(po).Error
}

func (r *purchaseOrderRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := conn(r.db, tx).
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Items.Product").
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepo) List(f PurchaseFilter) ([]model.PurchaseOrder, int64, error) {
	p := f.Pagination.Normalize()
	q := f.Range.apply(r.db.Model(&model.PurchaseOrder{}), "created_at")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []model.PurchaseOrder
	err := q.Preload("Supplier").
		Order("created_at DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *purchaseOrderRepo) Transition(tx *gorm.DB, id uuid.UUID, from, to model.PurchaseStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range fields {
		updates[k] = v
	}
	res := conn(r.db, tx).Model(&model.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *purchaseOrderRepo) ReceivedForPeriod(dr DateRange) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	err := dr.apply(r.db.Model(&model.PurchaseOrder{}), "invoice_date").
		Where("status = ? AND supplier_ncf IS NOT NULL AND supplier_ncf <> ''", model.PurchaseReceived).
		Preload("Supplier").
		Order("invoice_date").
		Find(&orders).Error
	return orders, err
}
