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

type PurchaseHandler struct {
	service service.PurchaseService
	loc     *time.Location
	log     *zap.Logger
}

func NewPurchaseHandler(s service.PurchaseService, loc *time.Location, log *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{service: s, loc: loc, log: log.Named("purchases")}
}

// GET /api/v1/purchases?status=&supplier_id=&from=&to=&page=&limit=
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	dr, ok, err := dateRange(c, h.loc)
	if !ok {
		return err
	}
	page, err := h.service.List(repository.PurchaseFilter{
		Status:     model.PurchaseStatus(strings.ToUpper(c.Query("status"))),
		SupplierID: optionalUUID(c, "supplier_id"),
		Range:      dr,
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/purchases/:id
func (h *PurchaseHandler) GetPurchase(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	po, err := h.service.Get(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(po)
}

// POST /api/v1/purchases
func (h *PurchaseHandler) CreatePurchase(c *fiber.Ctx) error {
	var req service.PurchaseOrderRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	po, err := h.service.Create(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(po)
}

// PUT /api/v1/purchases/:id
func (h *PurchaseHandler) UpdatePurchase(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.PurchaseOrderRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	po, err := h.service.Update(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(po)
}

// POST /api/v1/purchases/:id/order
func (h *PurchaseHandler) OrderPurchase(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	po, err := h.service.Order(id, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(po)
}

// ReceivePurchase adds the goods to stock
// POST /api/v1/purchases/:id/receive
func (h *PurchaseHandler) ReceivePurchase(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.ReceivePurchaseRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &req); !ok {
			return err
		}
	}
	po, err := h.service.Receive(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(po)
}

// POST /api/v1/purchases/:id/cancel
func (h *PurchaseHandler) CancelPurchase(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	po, err := h.service.Cancel(id, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(po)
}
