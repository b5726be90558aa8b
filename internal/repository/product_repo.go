package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	LowStock   bool
	// LowStockDefault applies to products without their own minimum.
	LowStockDefault int
	ActiveOnly      bool
	Pagination      model.Pagination
}

type ProductRepository interface {
	Create(product *model.Product) error
	Update(product *model.Product) error
	Delete(id uuid.UUID, deletedBy string) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	FindBySKU(sku string) (*model.Product, error)
	FindByBarcode(code string) (*model.Product, error)
	List(filter ProductFilter) ([]model.Product, int64, error)
	LowStock(defaultMin int) ([]model.Product, error)

	// DecrementStock subtracts qty only while enough stock remains and
	// returns the resulting stock, or ErrInsufficientStock.
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (int, error)
	IncrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (int, error)
	SetStock(tx *gorm.DB, id uuid.UUID, stock int, updatedBy string) error
	UpdateCost(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal, updatedBy string) error

	Count() (int64, error)
	CountLowStock(defaultMin int) (int64, error)
	Valuation() (decimal.Decimal, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

// Update saves catalog fields. Stock only changes through the stock methods.
func (r *productRepo) Update(product *model.Product) error {
	return r.db.Omit("Category", "Stock").Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := conn(r.db, tx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	var products []model.Product
	if err := conn(r.db, tx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) FindBySKU(sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, "barcode = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func lowStockCond(q *gorm.DB, defaultMin int) *gorm.DB {
	return q.Where("((min_stock > 0 AND stock <= min_stock) OR (min_stock <= 0 AND stock <= ?))", defaultMin)
}

func (r *productRepo) List(f ProductFilter) ([]model.Product, int64, error) {
	p := f.Pagination.Normalize()
	q := r.db.Model(&model.Product{})
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode LIKE ?)", like, like, like)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.LowStock {
		q = lowStockCond(q, f.LowStockDefault)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []model.Product
	err := q.Preload("Category").Order("name").Offset(p.Offset()).Limit(p.Limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) LowStock(defaultMin int) ([]model.Product, error) {
	var products []model.Product
	q := lowStockCond(r.db.Model(&model.Product{}).Where("is_active = ?", true), defaultMin)
	err := q.Preload("Category").Order("stock ASC, name").Find(&products).Error
	return products, err
}

func (r *productRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (int, error) {
	db := conn(r.db, tx)
	res := db.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientStock
	}
	return r.currentStock(db, id)
}

// IncrementStock also reaches soft-deleted products so cancelled sales and
// receipts of old orders still restore their stock.
func (r *productRepo) IncrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (int, error) {
	db := conn(r.db, tx)
	res := db.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.currentStock(db, id)
}

func (r *productRepo) currentStock(db *gorm.DB, id uuid.UUID) (int, error) {
	var stock int
	err := db.Unscoped().Model(&model.Product{}).Where("id = ?", id).Select("stock").Scan(&stock).Error
	return stock, err
}

func (r *productRepo) SetStock(tx *gorm.DB, id uuid.UUID, stock int, updatedBy string) error {
	res := conn(r.db, tx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) UpdateCost(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal, updatedBy string) error {
	return conn(r.db, tx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cost":       cost,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		}).Error
}

func (r *productRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *productRepo) CountLowStock(defaultMin int) (int64, error) {
	var n int64
	err := lowStockCond(r.db.Model(&model.Product{}).Where("is_active = ?", true), defaultMin).Count(&n).Error
	return n, err
}

// Valuation is Σ stock × cost over active products.
func (r *productRepo) Valuation() (decimal.Decimal, error) {
	var v decimal.NullDecimal
	err := r.db.Model(&model.Product{}).
		Where("is_active = ?", true).
		Select("SUM(stock * cost)").
		Scan(&v).Error
	if err != nil || !v.Valid {
		return decimal.Zero, err
	}
	return v.Decimal.Round(2), nil
}
