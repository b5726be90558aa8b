package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(s service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: s, log: log.Named("catalog")}
}

// GET /api/v1/categories
func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(categories)
}

// POST /api/v1/categories
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	category, err := h.service.CreateCategory(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// PUT /api/v1/categories/:id
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.CategoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	category, err := h.service.UpdateCategory(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(category)
}

// DELETE /api/v1/categories/:id
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	if err := h.service.DeleteCategory(id, actorFrom(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Categoría eliminada"})
}

// GetProducts lists products
// GET /api/v1/products?q=&category_id=&low_stock=true&active=true&page=&limit=
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(repository.ProductFilter{
		Query:      c.Query("q"),
		CategoryID: optionalUUID(c, "category_id"),
		LowStock:   queryBool(c, "low_stock"),
		ActiveOnly: queryBool(c, "active"),
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	product, err := h.service.GetProduct(id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

// GET /api/v1/products/barcode/:code
func (h *CatalogHandler) GetProductByBarcode(c *fiber.Ctx) error {
	product, err := h.service.GetProductByBarcode(c.Params("code"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

// POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	product, err := h.service.CreateProduct(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.ProductRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	product, err := h.service.UpdateProduct(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

// DELETE /api/v1/products/:id
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	if err := h.service.DeleteProduct(id, actorFrom(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Producto eliminado"})
}
