package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementFilter struct {
	ProductID  *uuid.UUID
	Type       model.MovementType
	Range      DateRange
	Pagination model.Pagination
}

// MovementPoint is a single (time, type, quantity) row for daily charts.
type MovementPoint struct {
	CreatedAt time.Time
	Type      model.MovementType
	Quantity  int
}

type StockMovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	List(filter MovementFilter) ([]model.StockMovement, int64, error)
	Points(r DateRange) ([]MovementPoint, error)
}

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	return conn(r.db, tx).Omit("Product", "User").Create(movement).Error
}

func (r *stockMovementRepo) List(f MovementFilter) ([]model.StockMovement, int64, error) {
	p := f.Pagination.Normalize()
	q := r.db.Model(&model.StockMovement{})
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	q = f.Range.apply(q, "created_at")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var movements []model.StockMovement
	err := q.Preload("Product").Preload("User").
		Order("created_at DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) Points(dr DateRange) ([]MovementPoint, error) {
	var points []MovementPoint
	q := dr.apply(r.db.Model(&model.StockMovement{}), "created_at")
	err := q.Select("created_at, type, quantity").Order("created_at").Scan(&points).Error
	return points, err
}
