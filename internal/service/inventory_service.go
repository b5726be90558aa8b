package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
)

// MovementRequest is a manual stock change. For ADJUSTMENT, Quantity is the
// counted stock; for IN and OUT it is the amount moved.
type MovementRequest struct {
	ProductID uuid.UUID          `json:"product_id" validate:"uuid_required"`
	Type      model.MovementType `json:"type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  int                `json:"quantity" validate:"gte=0"`
	Note      string             `json:"note" validate:"omitempty,max=500"`
}

type InventoryService interface {
	RecordMovement(req *MovementRequest, actor Actor) (*model.StockMovement, error)
	ListMovements(filter repository.MovementFilter) (model.Page[model.StockMovement], error)
	LowStock() ([]model.Product, error)
}

type inventoryService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	audit        AuditService
	events       ws.Publisher
	log          *zap.Logger
	lowStock     int
}

func NewInventoryService(db *gorm.DB, productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository, audit AuditService, events ws.Publisher, log *zap.Logger, lowStockDefault int) InventoryService {
	return &inventoryService{
		db:           db,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		audit:        audit,
		events:       events,
		log:          log.Named("inventory"),
		lowStock:     lowStockDefault,
	}
}

func (s *inventoryService) RecordMovement(req *MovementRequest, actor Actor) (*model.StockMovement, error) {
	if req.Type != model.MovementAdjustment && req.Quantity <= 0 {
		return nil, validationf("La cantidad debe ser mayor que cero")
	}

	var (
		movement *model.StockMovement
		product  *model.Product
		oldStock int
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. Current state
		p, err := s.productRepo.FindByID(tx, req.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}
		product = p
		oldStock = p.Stock

		// 2. Apply the change; OUT never drives stock below zero
		var delta, after int
		switch req.Type {
		case model.MovementIn:
			after, err = s.productRepo.IncrementStock(tx, p.ID, req.Quantity, actor.by())
			delta = req.Quantity
		case model.MovementOut:
			after, err = s.productRepo.DecrementStock(tx, p.ID, req.Quantity, actor.by())
			delta = -req.Quantity
		case model.MovementAdjustment:
			err = s.productRepo.SetStock(tx, p.ID, req.Quantity, actor.by())
			after = req.Quantity
			delta = req.Quantity - oldStock
		}
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return newError(ErrConflict, fmt.Sprintf("Stock insuficiente para '%s': disponible %d, solicitado %d", p.Name, oldStock, req.Quantity))
			}
			return err
		}
		product.Stock = after

		// 3. Ledger and audit
		movement = &model.StockMovement{
			ProductID:  p.ID,
			Type:       req.Type,
			Quantity:   delta,
			StockAfter: after,
			Note:       req.Note,
			UserID:     actor.idPtr(),
		}
		if err := s.movementRepo.Create(tx, movement); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, model.AuditAdjust, "product", p.ID.String(), map[string]interface{}{
			"type":      req.Type,
			"quantity":  delta,
			"old_stock": oldStock,
			"new_stock": after,
			"note":      req.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	// 4. Broadcast
	data := productPayload(product, s.lowStock)
	data["old_stock"] = oldStock
	data["movement_type"] = req.Type
	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "stock_movement",
		Data:    data,
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s registró %s de %d en '%s'", actor.Name, movementLabel(req.Type), abs(movement.Quantity), product.Name),
	})
	if product.IsLowStock(s.lowStock) {
		s.events.Publish(ws.Event{
			Type:    "low_stock",
			Data:    data,
			Message: fmt.Sprintf("Stock bajo: '%s' tiene %d unidades", product.Name, product.Stock),
		})
	}
	return movement, nil
}

func (s *inventoryService) ListMovements(filter repository.MovementFilter) (model.Page[model.StockMovement], error) {
	filter.Pagination = filter.Pagination.Normalize()
	movements, total, err := s.movementRepo.List(filter)
	if err != nil {
		return model.Page[model.StockMovement]{}, err
	}
	return model.NewPage(movements, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}

func (s *inventoryService) LowStock() ([]model.Product, error) {
	return s.productRepo.LowStock(s.lowStock)
}

func movementLabel(t model.MovementType) string {
	switch t {
	case model.MovementIn:
		return "una entrada"
	case model.MovementOut:
		return "una salida"
	case model.MovementAdjustment:
		return "un ajuste"
	}
	return string(t)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
