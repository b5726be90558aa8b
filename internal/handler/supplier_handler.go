package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type SupplierHandler struct {
	service service.SupplierService
	log     *zap.Logger
}

func NewSupplierHandler(s service.SupplierService, log *zap.Logger) *SupplierHandler {
	return &SupplierHandler{service: s, log: log.Named("suppliers")}
}

// GET /api/v1/suppliers?q=&page=&limit=
func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	page, err := h.service.List(c.Query("q"), pagination(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/suppliers/:id
func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	supplier, err := h.service.Get(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(supplier)
}

// POST /api/v1/suppliers
func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	var req service.SupplierRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	supplier, err := h.service.Create(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(supplier)
}

// PUT /api/v1/suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.SupplierRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	supplier, err := h.service.Update(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(supplier)
}

// DELETE /api/v1/suppliers/:id
func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	if err := h.service.Delete(id, actorFrom(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Proveedor eliminado"})
}
