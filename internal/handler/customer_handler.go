package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
)

type CustomerHandler struct {
	service service.CustomerService
	log     *zap.Logger
}

func NewCustomerHandler(s service.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{service: s, log: log.Named("customers")}
}

// GET /api/v1/customers?q=&active=true&page=&limit=
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	page, err := h.service.List(repository.CustomerFilter{
		Query:      c.Query("q"),
		ActiveOnly: queryBool(c, "active"),
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	customer, err := h.service.Get(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(customer)
}

// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CustomerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	customer, err := h.service.Create(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.CustomerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	customer, err := h.service.Update(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(customer)
}

// DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	if err := h.service.Delete(id, actorFrom(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Cliente eliminado"})
}
