package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type NcfHandler struct {
	service service.NcfService
	log     *zap.Logger
}

func NewNcfHandler(s service.NcfService, log *zap.Logger) *NcfHandler {
	return &NcfHandler{service: s, log: log.Named("ncf")}
}

// GetSequences lists sequences with their remaining numbers
// GET /api/v1/ncf/sequences
func (h *NcfHandler) GetSequences(c *fiber.Ctx) error {
	sequences, err := h.service.List()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(sequences)
}

// POST /api/v1/ncf/sequences
func (h *NcfHandler) CreateSequence(c *fiber.Ctx) error {
	var req service.CreateNcfSequenceRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	seq, err := h.service.Create(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(seq)
}

// PUT /api/v1/ncf/sequences/:id
func (h *NcfHandler) UpdateSequence(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	var req service.UpdateNcfSequenceRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	seq, err := h.service.Update(id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(seq)
}

// GetStatus summarizes availability per receipt type
// GET /api/v1/ncf/status
func (h *NcfHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.service.Status()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(status)
}

// GET /api/v1/ncf/validate/:ncf
func (h *NcfHandler) Validate(c *fiber.Ctx) error {
	return c.JSON(h.service.Validate(c.Params("ncf")))
}
