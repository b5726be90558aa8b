package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
)

type InventoryHandler struct {
	service service.InventoryService
	loc     *time.Location
	log     *zap.Logger
}

func NewInventoryHandler(s service.InventoryService, loc *time.Location, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{service: s, loc: loc, log: log.Named("inventory")}
}

// CreateMovement records a manual IN, OUT or ADJUSTMENT
// POST /api/v1/inventory/movements
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var req service.MovementRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	movement, err := h.service.RecordMovement(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Movimiento registrado",
		"data":    movement,
	})
}

// GetMovements lists the inventory ledger
// GET /api/v1/inventory/movements?product_id=&type=&from=&to=&page=&limit=
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	dr, ok, err := dateRange(c, h.loc)
	if !ok {
		return err
	}
	page, err := h.service.ListMovements(repository.MovementFilter{
		ProductID:  optionalUUID(c, "product_id"),
		Type:       model.MovementType(strings.ToUpper(c.Query("type"))),
		Range:      dr,
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"count": len(products), "data": products})
}
