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

const HeaderIdempotencyKey = "Idempotency-Key"

type SaleHandler struct {
	service service.SaleService
	loc     *time.Location
	log     *zap.Logger
}

func NewSaleHandler(s service.SaleService, loc *time.Location, log *zap.Logger) *SaleHandler {
	return &SaleHandler{service: s, loc: loc, log: log.Named("sales")}
}

// CreateSale registers a sale, allocating its NCF
// POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if len(key) > 128 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Idempotency-Key demasiado largo"})
	}

	sale, err := h.service.Create(c.UserContext(), &req, key, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// GetSales lists sales
// GET /api/v1/sales?from=&to=&status=&customer_id=&cashier_id=&q=&page=&limit=
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	dr, ok, err := dateRange(c, h.loc)
	if !ok {
		return err
	}
	page, err := h.service.List(repository.SaleFilter{
		Range:      dr,
		Status:     model.SaleStatus(strings.ToUpper(c.Query("status"))),
		CustomerID: optionalUUID(c, "customer_id"),
		CashierID:  optionalUUID(c, "cashier_id"),
		Query:      c.Query("q"),
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	sale, err := h.service.Get(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(sale)
}

// GetReceipt returns the printable ticket; ?format=text returns plain text.
// GET /api/v1/sales/:id/receipt
func (h *SaleHandler) GetReceipt(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	receipt, err := h.service.Receipt(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(receipt.Text)
	}
	return c.JSON(receipt)
}

// CancelSale voids a sale and restores its stock
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) CancelSale(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.CancelSaleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	sale, err := h.service.Cancel(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Venta anulada", "data": sale})
}
