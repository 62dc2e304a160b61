package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "rentspace/internal/log"
	"rentspace/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=80"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,max=64"`
	Role     string `json:"role" validate:"required,oneof=tenant landlord"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=64"`
}

func (h *AuthHandler) setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  expires,
	})
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "auth.signup.fail", err)
	}
	u, err := h.Auth.SignUp(c.UserContext(), services.SignUpInput{
		Email: req.Email, Name: req.Name, Phone: req.Phone, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		return fail(c, "auth.signup.fail", err)
	}
	applog.Audit(c, "auth.signup", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "email": u.Email, "role": u.Role})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "auth.signin.fail", err)
	}
	id, tok, err := h.Auth.SignIn(c.UserContext(), c.Cookies("sid"), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "auth.signin.fail", map[string]any{"email": req.Email})
		}
		return fail(c, "auth.signin.fail", err)
	}
	h.setSID(c, id.SessionID, time.Time{})
	c.Locals(identityKey, id)
	applog.Audit(c, "auth.signin.success", map[string]any{"email": id.Email})
	return c.JSON(fiber.Map{"user": id, "token": tok})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if id := identity(c); id != nil && id.SessionID != "" {
		sid = id.SessionID
	}
	if sid != "" {
		if err := h.Auth.SignOut(c.UserContext(), sid); err != nil {
			return fail(c, "auth.signout.fail", err)
		}
	}
	h.setSID(c, "", time.Now().Add(-1*time.Hour))
	applog.Audit(c, "auth.signout", map[string]any{"sid": sid})
	return c.JSON(fiber.Map{"ok": true})
}

// Session reports who the caller is.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	id := identity(c)
	if id == nil {
		return fail(c, "auth.session", services.ErrAuthRequired)
	}
	return c.JSON(fiber.Map{"user": id})
}
