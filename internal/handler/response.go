package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/pkg/validator"
)

const msgInternal = "Error interno del servidor"

// respondError maps service errors to status codes. Unknown errors are
// logged and reported with a generic message.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrAuth):
		status = fiber.StatusUnauthorized
	}
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("request_id")),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": msgInternal})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// bind parses the JSON body into req and validates it. On failure the 400
// response has already been written and ok is false.
func bind(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "JSON inválido"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Datos inválidos",
			"details": errs,
		})
	}
	return true, nil
}

// actorFrom reads the user set by middleware.RequireAuth.
func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{IP: c.IP()}
	if raw, ok := c.Locals("user_id").(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			actor.ID = id
		}
	}
	actor.Name, _ = c.Locals("user_name").(string)
	actor.Email, _ = c.Locals("user_email").(string)
	return actor
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID inválido"})
	}
	return id, true, nil
}

func optionalUUID(c *fiber.Ctx, key string) *uuid.UUID {
	id, err := uuid.Parse(c.Query(key))
	if err != nil {
		return nil
	}
	return &id
}

func pagination(c *fiber.Ctx) model.Pagination {
	return model.Pagination{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)}.Normalize()
}

// dateRange reads from/to (YYYY-MM-DD) in loc; to is inclusive.
func dateRange(c *fiber.Ctx, loc *time.Location) (repository.DateRange, bool, error) {
	var dr repository.DateRange
	if from := c.Query("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, loc)
		if err != nil {
			return dr, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fecha 'from' inválida: use AAAA-MM-DD"})
		}
		dr.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, loc)
		if err != nil {
			return dr, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fecha 'to' inválida: use AAAA-MM-DD"})
		}
		dr.To = t.AddDate(0, 0, 1)
	}
	return dr, true, nil
}

func queryBool(c *fiber.Ctx, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
