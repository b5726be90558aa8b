package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type SettingsHandler struct {
	service service.SettingsService
	log     *zap.Logger
}

func NewSettingsHandler(s service.SettingsService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{service: s, log: log.Named("settings")}
}

// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.Get()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(settings)
}

// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req service.UpdateSettingsRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	settings, err := h.service.Update(&req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(settings)
}

// UploadLogo stores the business logo from the multipart field "logo"
// POST /api/v1/settings/logo
func (h *SettingsHandler) UploadLogo(c *fiber.Ctx) error {
	header, err := c.FormFile("logo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Adjunte la imagen en el campo 'logo'"})
	}
	file, err := header.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer file.Close()

	settings, err := h.service.UploadLogo(c.UserContext(), service.LogoUpload{
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	}, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(settings)
}
