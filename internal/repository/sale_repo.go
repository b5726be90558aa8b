package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleFilter struct {
	Range      DateRange
	Status     model.SaleStatus
	CustomerID *uuid.UUID
	CashierID  *uuid.UUID
	Query      string // sale number or NCF
	Pagination model.Pagination
}

type SalesSummary struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SalePoint is the minimum needed to bucket sales per day in Go.
type SalePoint struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type PaymentMethodTotal struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Count         int64               `json:"count"`
	Total         decimal.Decimal     `json:"total"`
}

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	List(filter SaleFilter) ([]model.Sale, int64, error)
	// MarkCancelled flips a COMPLETED sale to CANCELLED, or returns
	// ErrStaleState if it was not COMPLETED.
	MarkCancelled(tx *gorm.DB, id uuid.UUID, by uuid.UUID, reason string, at time.Time) error

	// ForFiscalPeriod lists completed sales, oldest first.
	ForFiscalPeriod(r DateRange) ([]model.Sale, error)
	CountCancelled(r DateRange) (int64, error)

	Summary(r DateRange) (SalesSummary, error)
	Points(r DateRange) ([]SalePoint, error)
	TopProducts(r DateRange, limit int) ([]TopProduct, error)
	PaymentMethods(r DateRange) ([]PaymentMethodTotal, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return conn(r.db, tx).Omit("Customer", "Cashier").Create(sale).Error
}

func (r *saleRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := conn(r.db, tx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Customer").
		Preload("Cashier").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) List(f SaleFilter) ([]model.Sale, int64, error) {
	p := f.Pagination.Normalize()
	q := f.Range.apply(r.db.Model(&model.Sale{}), "created_at")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.CashierID != nil {
		q = q.Where("cashier_id = ?", *f.CashierID)
	}
	if f.Query != "" {
		q = q.Where("(sale_number = ? OR ncf = ?)", f.Query, f.Query)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sales []model.Sale
	err := q.Preload("Customer").Preload("Cashier").
		Order("created_at DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) MarkCancelled(tx *gorm.DB, id uuid.UUID, by uuid.UUID, reason string, at time.Time) error {
	res := conn(r.db, tx).Model(&model.Sale{}).
		Where("id = ? AND status = ?", id, model.SaleCompleted).
		Updates(map[string]interface{}{
			"status":          model.SaleCancelled,
			"cancelled_at":    at,
			"cancel_reason":   reason,
			"cancelled_by_id": by,
			"updated_by":      by.String(),
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *saleRepo) ForFiscalPeriod(dr DateRange) ([]model.Sale, error) {
	var sales []model.Sale
	err := dr.apply(r.db.Model(&model.Sale{}), "created_at").
		Where("status = ?", model.SaleCompleted).
		Order("created_at").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) CountCancelled(dr DateRange) (int64, error) {
	var n int64
	err := dr.apply(r.db.Model(&model.Sale{}), "created_at").
		Where("status = ?", model.SaleCancelled).
		Count(&n).Error
	return n, err
}

func (r *saleRepo) Summary(dr DateRange) (SalesSummary, error) {
	var row struct {
		Count int64
		Total decimal.NullDecimal
	}
	err := dr.apply(r.db.Model(&model.Sale{}), "created_at").
		Where("status = ?", model.SaleCompleted).
		Select("COUNT(*) AS count, SUM(total) AS total").
		Scan(&row).Error
	if err != nil {
		return SalesSummary{}, err
	}
	return SalesSummary{Count: row.Count, Total: row.Total.Decimal.Round(2)}, nil
}

func (r *saleRepo) Points(dr DateRange) ([]SalePoint, error) {
	var points []SalePoint
	err := dr.apply(r.db.Model(&model.Sale{}), "created_at").
		Where("status = ?", model.SaleCompleted).
		Select("created_at, total").
		Order("created_at").
		Scan(&points).Error
	return points, err
}

func (r *saleRepo) TopProducts(dr DateRange, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	q := r.db.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.status = ? AND sales.deleted_at IS NULL AND sale_items.deleted_at IS NULL", model.SaleCompleted)
	if !dr.From.IsZero() {
		q = q.Where("sales.created_at >= ?", dr.From)
	}
	if !dr.To.IsZero() {
		q = q.Where("sales.created_at < ?", dr.To)
	}
	err := q.Select("sale_items.product_id AS product_id, MAX(sale_items.product_name) AS product_name, " +
		"SUM(sale_items.quantity) AS quantity, SUM(sale_items.total) AS revenue").
		Group("sale_items.product_id").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *saleRepo) PaymentMethods(dr DateRange) ([]PaymentMethodTotal, error) {
	var rows []PaymentMethodTotal
	err := dr.apply(r.db.Model(&model.Sale{}), "created_at").
		Where("status = ?", model.SaleCompleted).
		Select("payment_method, COUNT(*) AS count, SUM(total) AS total").
		Group("payment_method").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}
