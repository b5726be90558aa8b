package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/service"
)

type ReportHandler struct {
	service service.ReportService
	log     *zap.Logger
}

func NewReportHandler(s service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{service: s, log: log.Named("reports")}
}

func (h *ReportHandler) download(c *fiber.Ctx, report *service.Report) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, report.FileName))
	c.Set("X-Record-Count", fmt.Sprint(report.Records))
	return c.Send(report.Body)
}

// Get607 exports sales for the DGII 607 format
// GET /api/v1/reports/dgii/607?period=YYYYMM
func (h *ReportHandler) Get607(c *fiber.Ctx) error {
	report, err := h.service.Sales607(c.Query("period"), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.download(c, report)
}

// Get606 exports purchases for the DGII 606 format
// GET /api/v1/reports/dgii/606?period=YYYYMM
func (h *ReportHandler) Get606(c *fiber.Ctx) error {
	report, err := h.service.Purchases606(c.Query("period"), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.download(c, report)
}
