package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type RncHandler struct {
	service service.RncService
	log     *zap.Logger
}

func NewRncHandler(s service.RncService, log *zap.Logger) *RncHandler {
	return &RncHandler{service: s, log: log.Named("rnc")}
}

// Lookup finds a taxpayer in the DGII registry
// GET /api/v1/rnc/:rnc
func (h *RncHandler) Lookup(c *fiber.Ctx) error {
	result, err := h.service.Lookup(c.UserContext(), c.Params("rnc"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Search matches registry names
// GET /api/v1/rnc/search?q=&limit=
func (h *RncHandler) Search(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 50 {
		limit = 20
	}
	results, err := h.service.Search(c.Query("q"), limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(results)
}
