package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
)

type AuditHandler struct {
	service service.AuditService
	loc     *time.Location
	log     *zap.Logger
}

func NewAuditHandler(s service.AuditService, loc *time.Location, log *zap.Logger) *AuditHandler {
	return &AuditHandler{service: s, loc: loc, log: log.Named("audit")}
}

// GetAuditLogs lists audit entries
// GET /api/v1/audit-logs?entity=&entity_id=&action=&user_id=&from=&to=&page=&limit=
func (h *AuditHandler) GetAuditLogs(c *fiber.Ctx) error {
	dr, ok, err := dateRange(c, h.loc)
	if !ok {
		return err
	}
	page, err := h.service.List(repository.AuditFilter{
		Entity:     c.Query("entity"),
		EntityID:   c.Query("entity_id"),
		Action:     strings.ToUpper(c.Query("action")),
		UserID:     optionalUUID(c, "user_id"),
		Range:      dr,
		Pagination: pagination(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}
