package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/middleware"
	"go-pos-rd/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	cookie      config.CookieConfig
	log         *zap.Logger
}

func NewAuthHandler(authService service.AuthService, cookie config.CookieConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log.Named("auth")}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	response, err := h.authService.Login(req.Email, req.Password, c.IP())
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.setCookie(c, response.Token, response.ExpiresAt)
	return c.JSON(response)
}

// Logout rotates the session and clears the cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(actorFrom(c)); err != nil {
		return respondError(c, h.log, err)
	}
	h.setCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"message": "Sesión cerrada"})
}

// ChangePassword updates the caller's password
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.authService.ChangePassword(actorFrom(c).ID, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Contraseña actualizada"})
}

// Heartbeat marks the caller online
// POST /api/v1/auth/heartbeat
func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	if err := h.authService.Heartbeat(actorFrom(c).ID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Heartbeat recibido", "status": "online"})
}

// ValidateToken checks a token from the body, the Authorization header or
// the session cookie.
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "JSON inválido"})
		}
	}
	token := req.Token
	if token == "" {
		token = middleware.TokenFromRequest(c, h.cookie.Name)
	}
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Token requerido"})
	}

	response, err := h.authService.ValidateToken(token)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(response)
}
