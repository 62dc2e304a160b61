package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"rentspace/internal/domain"
	applog "rentspace/internal/log"
	"rentspace/internal/services"
)

const identityKey = "identity"

// Identify attaches the caller to the request when a live session is found, either through
// an "Authorization: Bearer" token or the sid cookie. Anonymous requests pass through.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if raw, ok := bearer(c); ok {
			c.Locals("bearer", true)
			tokSID, err := auth.ParseToken(raw)
			if err != nil {
				applog.Security(c, "auth.token.invalid", nil)
				return c.Next()
			}
			sid = tokSID
		}
		if sid == "" {
			return c.Next()
		}
		id, err := auth.CurrentUser(c.UserContext(), sid)
		if err == nil {
			c.Locals(identityKey, id)
		}
		return c.Next()
	}
}

func bearer(c *fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func usesBearer(c *fiber.Ctx) bool {
	b, _ := c.Locals("bearer").(bool)
	return b
}

func identity(c *fiber.Ctx) *domain.Identity {
	id, _ := c.Locals(identityKey).(*domain.Identity)
	return id
}

// RequireUser enforces that a user is signed in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    services.ErrAuthRequired.Error(),
				"redirect": "/login",
			})
		}
		return c.Next()
	}
}

// RequireRole is RequireUser plus a role check.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity(c)
		if id == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    services.ErrAuthRequired.Error(),
				"redirect": "/login",
			})
		}
		if id.Role != role {
			applog.Security(c, "access.denied."+role, map[string]any{"role": id.Role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrForbidden.Error()})
		}
		return c.Next()
	}
}
