package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DriverRepository interface {
	Create(driver *model.Driver) error
	Update(driver *model.Driver) error
	FindByID(id uuid.UUID) (*model.Driver, error)
	FindAll(activeOnly bool) ([]model.Driver, error)
}

type driverRepo struct {
	db *gorm.DB
}

func NewDriverRepo(db *gorm.DB) DriverRepository {
	return &driverRepo{db}
}

func (r *driverRepo) Create(driver *model.Driver) error {
	return r.db.Create(driver).Error
}

func (r *driverRepo) Update(driver *model.Driver) error {
	return r.db.Save(driver).Error
}

func (r *driverRepo) FindByID(id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepo) FindAll(activeOnly bool) ([]model.Driver, error) {
	var drivers []model.Driver
	q := r.db.Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&drivers).Error; err != nil {
		return nil, err
	}

	type countRow struct {
		DriverID uuid.UUID
		Total    int64
	}
	var rows []countRow
	err := r.db.Model(&model.Delivery{}).
		Select("driver_id, COUNT(*) AS total").
		Where("driver_id IS NOT NULL AND status IN ?", []model.DeliveryStatus{model.DeliveryAssigned, model.DeliveryInTransit}).
		Group("driver_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.DriverID] = row.Total
	}
	for i := range drivers {
		drivers[i].ActiveDeliveries = counts[drivers[i].ID]
	}
	return drivers, nil
}

type DeliveryRepository interface {
	Create(delivery *model.Delivery) error
	FindByID(id uuid.UUID) (*model.Delivery, error)
	FindOpenBySale(saleID uuid.UUID) (*model.Delivery, error)
	List(status model.DeliveryStatus, p model.Pagination) ([]model.Delivery, int64, error)
	// Transition updates status and fields only if the delivery is still in
	// from; ErrStaleState otherwise.
	Transition(id uuid.UUID, from, to model.DeliveryStatus, fields map[string]interface{}) error
}

type deliveryRepo struct {
	db *gorm.DB
}

func NewDeliveryRepo(db *gorm.DB) DeliveryRepository {
	return &deliveryRepo{db}
}

func (r *deliveryRepo) Create(delivery *model.Delivery) error {
	return r.db.Omit("Sale", "Customer", "Driver").Create(delivery).Error
}

func (r *deliveryRepo) FindByID(id uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.Preload("Sale").Preload("Customer").Preload("Driver").First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) FindOpenBySale(saleID uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.Where("sale_id = ? AND status <> ?", saleID, model.DeliveryCancelled).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) List(status model.DeliveryStatus, p model.Pagination) ([]model.Delivery, int64, error) {
	p = p.Normalize()
	q := r.db.Model(&model.Delivery{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var deliveries []model.Delivery
	err := q.Preload("Sale").Preload("Customer").Preload("Driver").
		Order("created_at DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&deliveries).Error
	return deliveries, total, err
}

func (r *deliveryRepo) Transition(id uuid.UUID, from, to model.DeliveryStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.Model(&model.Delivery{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
