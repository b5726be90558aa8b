package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(s service.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log.Named("dashboard")}
}

// GetDashboardStats returns overview statistics
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}

// GetSalesByDay returns daily totals for charts
// Query params: days (default 7, max 90)
func (h *DashboardHandler) GetSalesByDay(c *fiber.Ctx) error {
	days := service.ClampDays(c.QueryInt("days", 7))
	data, err := h.service.GetSalesByDay(days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

// GET /api/v1/dashboard/top-products?days=&limit=
func (h *DashboardHandler) GetTopProducts(c *fiber.Ctx) error {
	days := service.ClampDays(c.QueryInt("days", 7))
	data, err := h.service.GetTopProducts(days, c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

// GET /api/v1/dashboard/payment-methods?days=
func (h *DashboardHandler) GetPaymentMethods(c *fiber.Ctx) error {
	days := service.ClampDays(c.QueryInt("days", 7))
	data, err := h.service.GetPaymentMethods(days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := service.ClampDays(c.QueryInt("days", 7))
	data, err := h.service.GetStockMovement(days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}
