package repository

import (
	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(supplier *model.Supplier) error
	Update(supplier *model.Supplier) error
	Delete(id uuid.UUID, deletedBy string) error
	FindByID(id uuid.UUID) (*model.Supplier, error)
	FindByRNC(rnc string) (*model.Supplier, error)
	List(query string, p model.Pagination) ([]model.Supplier, int64, error)
	CountOpenOrders(id uuid.UUID) (int64, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(supplier *model.Supplier) error {
	return r.db.Create(supplier).Error
}

func (r *supplierRepo) Update(supplier *model.Supplier) error {
	return r.db.Save(supplier).Error
}

func (r *supplierRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Supplier{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Supplier{}, "id = ?", id).Error
	})
}

func (r *supplierRepo) FindByID(id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByRNC(rnc string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.First(&supplier, "rnc = ?", rnc).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) List(query string, p model.Pagination) ([]model.Supplier, int64, error) {
	p = p.Normalize()
	q := r.db.Model(&model.Supplier{})
	if query != "" {
		like := likePattern(query)
		q = q.Where("(LOWER(name) LIKE ? OR rnc LIKE ? OR LOWER(contact_name) LIKE ?)", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var suppliers []model.Supplier
	err := q.Order("name").Offset(p.Offset()).Limit(p.Limit).Find(&suppliers).Error
	return suppliers, total, err
}

func (r *supplierRepo) CountOpenOrders(id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&model.PurchaseOrder{}).
		Where("supplier_id = ? AND status IN ?", id, []model.PurchaseStatus{model.PurchaseDraft, model.PurchaseOrdered}).
		Count(&n).Error
	return n, err
}
