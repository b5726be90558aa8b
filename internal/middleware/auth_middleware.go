package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/service"
)

// TokenFromRequest returns the bearer token, falling back to the session
// cookie set at login.
func TokenFromRequest(c *fiber.Ctx, cookieName string) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(cookieName)
}

// RequireAuth is middleware that validates the session token and sets user info in context
func RequireAuth(auth service.AuthService, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token de autorización requerido"})
		}

		// Signature, expiry, active flag and single session
		user, err := auth.Authenticate(token)
		if err != nil {
			var svcErr *service.Error
			if errors.As(err, &svcErr) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": svcErr.Error()})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": service.ErrInvalidToken.Error()})
		}

		// Set user info in context for downstream handlers
		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_role", user.RoleCode())
		c.Locals("user_privileges", user.GetPrivilegeCodes())

		return c.Next()
	}
}

// RequireRole lets through the listed roles. ADMIN always passes.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role == model.RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Acceso denegado: requiere rol " + strings.Join(roles, " o "),
		})
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Sin privilegios asignados"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Acceso denegado: requiere el privilegio '" + requiredPrivilege + "'",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Sin privilegios asignados"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Acceso denegado: requiere uno de " + strings.Join(requiredPrivileges, ", "),
		})
	}
}
