package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/service"
)

type WhatsAppHandler struct {
	service service.WhatsAppService
	log     *zap.Logger
}

func NewWhatsAppHandler(s service.WhatsAppService, log *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{service: s, log: log.Named("whatsapp")}
}

// POST /api/v1/whatsapp/send
func (h *WhatsAppHandler) Send(c *fiber.Ctx) error {
	var req service.SendMessageRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	msg, err := h.service.Send(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(msg)
}

// SendReceipt sends the sale ticket to the customer's phone
// POST /api/v1/whatsapp/sales/:id/receipt
func (h *WhatsAppHandler) SendReceipt(c *fiber.Ctx) error {
	id, ok, err := parseID(c, "id")
	if !ok {
		return err
	}
	msg, err := h.service.SendReceipt(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(msg)
}

// POST /api/v1/whatsapp/broadcast
func (h *WhatsAppHandler) Broadcast(c *fiber.Ctx) error {
	var req service.BroadcastRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	result, err := h.service.Broadcast(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// GET /api/v1/whatsapp/messages?kind=&phone=&page=&limit=
func (h *WhatsAppHandler) GetMessages(c *fiber.Ctx) error {
	kind := model.MessageKind(strings.ToUpper(c.Query("kind")))
	page, err := h.service.List(kind, c.Query("phone"), pagination(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}
