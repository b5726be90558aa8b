package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/service"
)

type DeliveryHandler struct {
	service service.DeliveryService
	log     *zap.Logger
}

func NewDeliveryHandler(s service.DeliveryService, log *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{service: s, log: log.Named("delivery")}
}

// GET /api/v1/drivers?active=true
func (h *DeliveryHandler) GetDrivers(c *fiber.Ctx) error {
	drivers, err := h.service.ListDrivers(queryBool(c, "active"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(drivers)
}

// POST /api/v1/drivers
func (h *DeliveryHandler) CreateDriver(c *fiber.Ctx) error {
	var req service.DriverRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	driver, err := h.service.CreateDriver(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(driver)
}

// PUT /api/v1/drivers/:id
func (h *DeliveryHandler) UpdateDriver(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.DriverRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	driver, err := h.service.UpdateDriver(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(driver)
}

// GET /api/v1/deliveries?status=&page=&limit=
func (h *DeliveryHandler) GetDeliveries(c *fiber.Ctx) error {
	status := model.DeliveryStatus(strings.ToUpper(c.Query("status")))
	page, err := h.service.List(status, pagination(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/deliveries/:id
func (h *DeliveryHandler) GetDelivery(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	delivery, err := h.service.Get(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(delivery)
}

// POST /api/v1/deliveries
func (h *DeliveryHandler) CreateDelivery(c *fiber.Ctx) error {
	var req service.CreateDeliveryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	delivery, err := h.service.Create(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(delivery)
}

// POST /api/v1/deliveries/:id/assign
func (h *DeliveryHandler) AssignDriver(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.AssignDriverRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	delivery, err := h.service.Assign(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(delivery)
}

// PUT /api/v1/deliveries/:id/status
func (h *DeliveryHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.DeliveryStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	delivery, err := h.service.UpdateStatus(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(delivery)
}
