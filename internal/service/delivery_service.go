package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
)

type DriverRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,phone_do"`
	Vehicle  string `json:"vehicle" validate:"omitempty,max=100"`
	Plate    string `json:"plate" validate:"omitempty,max=20"`
	IsActive *bool  `json:"is_active"`
}

type CreateDeliveryRequest struct {
	SaleID  uuid.UUID       `json:"sale_id" validate:"uuid_required"`
	Address string          `json:"address" validate:"omitempty,max=1000"`
	Phone   string          `json:"phone" validate:"omitempty,phone_do"`
	Fee     decimal.Decimal `json:"fee"`
	Notes   string          `json:"notes" validate:"omitempty,max=1000"`
}

type AssignDriverRequest struct {
	DriverID uuid.UUID `json:"driver_id" validate:"uuid_required"`
}

type DeliveryStatusRequest struct {
	Status model.DeliveryStatus `json:"status" validate:"required,oneof=PENDING ASSIGNED IN_TRANSIT DELIVERED CANCELLED"`
}

type DeliveryService interface {
	CreateDriver(req *DriverRequest, actor Actor) (*model.Driver, error)
	UpdateDriver(id uuid.UUID, req *DriverRequest, actor Actor) (*model.Driver, error)
	ListDrivers(activeOnly bool) ([]model.Driver, error)

	Create(req *CreateDeliveryRequest, actor Actor) (*model.Delivery, error)
	Assign(id uuid.UUID, req *AssignDriverRequest, actor Actor) (*model.Delivery, error)
	UpdateStatus(id uuid.UUID, req *DeliveryStatusRequest, actor Actor) (*model.Delivery, error)
	Get(id uuid.UUID) (*model.Delivery, error)
	List(status model.DeliveryStatus, p model.Pagination) (model.Page[model.Delivery], error)
}

type deliveryService struct {
	drivers    repository.DriverRepository
	deliveries repository.DeliveryRepository
	sales      repository.SaleRepository
	audit      AuditService
	events     ws.Publisher
	log        *zap.Logger
	now        func() time.Time
}

func NewDeliveryService(drivers repository.DriverRepository, deliveries repository.DeliveryRepository, sales repository.SaleRepository, audit AuditService, events ws.Publisher, log *zap.Logger) DeliveryService {
	return &deliveryService{
		drivers:    drivers,
		deliveries: deliveries,
		sales:      sales,
		audit:      audit,
		events:     events,
		log:        log.Named("delivery"),
		now:        time.Now,
	}
}

func (s *deliveryService) CreateDriver(req *DriverRequest, actor Actor) (*model.Driver, error) {
	driver := &model.Driver{
		Name:     strings.TrimSpace(req.Name),
		Phone:    req.Phone,
		Vehicle:  strings.TrimSpace(req.Vehicle),
		Plate:    strings.ToUpper(strings.TrimSpace(req.Plate)),
		IsActive: boolOr(req.IsActive, true),
	}
	driver.CreatedBy = actor.by()
	driver.UpdatedBy = actor.by()
	if err := s.drivers.Create(driver); err != nil {
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "driver", driver.ID.String(), map[string]interface{}{"name": driver.Name})
	return driver, nil
}

func (s *deliveryService) UpdateDriver(id uuid.UUID, req *DriverRequest, actor Actor) (*model.Driver, error) {
	driver, err := s.drivers.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	driver.Name = strings.TrimSpace(req.Name)
	driver.Phone = req.Phone
	driver.Vehicle = strings.TrimSpace(req.Vehicle)
	driver.Plate = strings.ToUpper(strings.TrimSpace(req.Plate))
	driver.IsActive = boolOr(req.IsActive, driver.IsActive)
	driver.UpdatedBy = actor.by()
	if err := s.drivers.Update(driver); err != nil {
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "driver", driver.ID.String(), map[string]interface{}{
		"name":      driver.Name,
		"is_active": driver.IsActive,
	})
	return driver, nil
}

func (s *deliveryService) ListDrivers(activeOnly bool) ([]model.Driver, error) {
	drivers, err := s.drivers.FindAll(activeOnly)
	if err != nil {
		return nil, err
	}
	if drivers == nil {
		drivers = []model.Driver{}
	}
	return drivers, nil
}

func (s *deliveryService) Create(req *CreateDeliveryRequest, actor Actor) (*model.Delivery, error) {
	// 1. The sale must exist and still be valid
	sale, err := s.sales.FindByID(nil, req.SaleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if sale.Status == model.SaleCancelled {
		return nil, ErrSaleCancelled
	}
	if req.Fee.IsNegative() {
		return nil, validationf("La tarifa de entrega no puede ser negativa")
	}

	// 2. One open delivery per sale
	if _, err := s.deliveries.FindOpenBySale(sale.ID); err == nil {
		return nil, ErrDeliveryExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	// 3. Address and phone fall back to the customer's
	address := strings.TrimSpace(req.Address)
	phone := req.Phone
	if sale.Customer != nil {
		if address == "" {
			address = strings.TrimSpace(sale.Customer.Address)
		}
		if phone == "" {
			phone = sale.Customer.Phone
		}
	}
	if address == "" {
		return nil, validationf("Indique la dirección de entrega")
	}

	delivery := &model.Delivery{
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Address:    address,
		Phone:      phone,
		Status:     model.DeliveryPending,
		Fee:        req.Fee.Round(2),
		Notes:      strings.TrimSpace(req.Notes),
	}
	delivery.CreatedBy = actor.by()
	delivery.UpdatedBy = actor.by()
	if err := s.deliveries.Create(delivery); err != nil {
		return nil, err
	}

	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "delivery", delivery.ID.String(), map[string]interface{}{
		"sale":    sale.SaleNumber,
		"address": address,
		"fee":     delivery.Fee,
	})
	created, err := s.Get(delivery.ID)
	if err != nil {
		return nil, err
	}
	s.publish(created, "created", actor, fmt.Sprintf("Nueva entrega para la venta %s", sale.SaleNumber))
	return created, nil
}

// Assign sets the driver of a PENDING delivery, or swaps the driver of one
// that is already ASSIGNED.
func (s *deliveryService) Assign(id uuid.UUID, req *AssignDriverRequest, actor Actor) (*model.Delivery, error) {
	delivery, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != model.DeliveryPending && delivery.Status != model.DeliveryAssigned {
		return nil, ErrInvalidTransition
	}

	driver, err := s.drivers.FindByID(req.DriverID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if !driver.IsActive {
		return nil, validationf("El repartidor %s está inactivo", driver.Name)
	}

	err = s.deliveries.Transition(id, delivery.Status, model.DeliveryAssigned, map[string]interface{}{
		"driver_id":   driver.ID,
		"assigned_at": s.now(),
		"updated_by":  actor.by(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "delivery", id.String(), map[string]interface{}{
		"status": model.DeliveryAssigned,
		"driver": driver.Name,
	})
	updated, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	s.publish(updated, "assigned", actor, fmt.Sprintf("Entrega asignada a %s", driver.Name))
	return updated, nil
}

func (s *deliveryService) UpdateStatus(id uuid.UUID, req *DeliveryStatusRequest, actor Actor) (*model.Delivery, error) {
	if !req.Status.Valid() {
		return nil, validationf("Estado de entrega inválido: %s", req.Status)
	}
	delivery, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	// ASSIGNED needs a driver and goes through Assign
	if req.Status == model.DeliveryAssigned || !delivery.Status.CanTransitionTo(req.Status) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	fields := map[string]interface{}{"updated_by": actor.by()}
	switch req.Status {
	case model.DeliveryInTransit:
		fields["dispatched_at"] = now
	case model.DeliveryDelivered:
		fields["delivered_at"] = now
	case model.DeliveryCancelled:
		fields["cancelled_at"] = now
	}
	if err := s.deliveries.Transition(id, delivery.Status, req.Status, fields); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "delivery", id.String(), map[string]interface{}{
		"from": delivery.Status,
		"to":   req.Status,
	})
	s.log.Info("delivery status changed",
		zap.String("delivery_id", id.String()),
		zap.String("from", string(delivery.Status)),
		zap.String("to", string(req.Status)),
	)
	updated, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	s.publish(updated, strings.ToLower(string(req.Status)), actor, "Entrega "+deliveryLabel(req.Status))
	return updated, nil
}

func (s *deliveryService) Get(id uuid.UUID) (*model.Delivery, error) {
	delivery, err := s.deliveries.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return delivery, nil
}

func (s *deliveryService) List(status model.DeliveryStatus, p model.Pagination) (model.Page[model.Delivery], error) {
	if status != "" && !status.Valid() {
		return model.Page[model.Delivery]{}, validationf("Estado de entrega inválido: %s", status)
	}
	p = p.Normalize()
	deliveries, total, err := s.deliveries.List(status, p)
	if err != nil {
		return model.Page[model.Delivery]{}, err
	}
	return model.NewPage(deliveries, total, p.Page, p.Limit), nil
}

func (s *deliveryService) publish(d *model.Delivery, action string, actor Actor, message string) {
	data := map[string]interface{}{
		"id":      d.ID,
		"sale_id": d.SaleID,
		"status":  d.Status,
		"address": d.Address,
	}
	if d.Driver != nil {
		data["driver"] = d.Driver.Name
	}
	s.events.Publish(ws.Event{Type: "delivery_update", Action: action, Data: data, User: actor.wsActor(), Message: message})
}

func deliveryLabel(status model.DeliveryStatus) string {
	switch status {
	case model.DeliveryInTransit:
		return "en camino"
	case model.DeliveryDelivered:
		return "entregada"
	case model.DeliveryCancelled:
		return "cancelada"
	case model.DeliveryAssigned:
		return "asignada"
	}
	return "pendiente"
}
