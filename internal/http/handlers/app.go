package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"rentspace/internal/domain"
	applog "rentspace/internal/log"
)

const (
	maxBody       = 1 << 20 // 1 MiB
	maxUploadBody = 8 << 20
)

// Limits are per-IP request budgets.
type Limits struct {
	Global  int // per minute
	Search  int // per minute
	SignIn  int // per 10 minutes
	Contact int // per 10 minutes
}

func DefaultLimits() Limits { return Limits{Global: 60, Search: 20, SignIn: 5, Contact: 3} }

// ErrorHandler keeps client errors raised by fiber and hides everything else behind GenericError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": GenericError})
}

func limitReached(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests. Please try again later."})
	}
}

// bodyCap rejects large bodies everywhere except the upload route, which gets the server-wide limit.
func bodyCap(c *fiber.Ctx) error {
	if c.Path() == "/api/v1/media/photos" {
		return c.Next()
	}
	if len(c.Body()) > maxBody {
		applog.Security(c, "request.too_large", map[string]any{"bytes": len(c.Body())})
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Request body too large"})
	}
	return c.Next()
}

func NewApp(d *Deps, lim Limits) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    maxUploadBody,
		ErrorHandler: ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(bodyCap)
	app.Use(Identify(d.AuthSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/") || c.Path() == "/healthz"
		},
		LimitReached: limitReached("rate.global.hit"),
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   d.CookieSecure,
		Next:           usesBearer,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"header": c.Get("X-Csrf-Token") != ""})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/media/*", d.MediaHandler.Serve)

	api := app.Group("/api/v1")
	landlord := RequireRole(domain.RoleLandlord)
	tenant := RequireRole(domain.RoleTenant)
	user := RequireUser()

	auth := api.Group("/auth")
	auth.Post("/signup", d.AuthHandler.SignUp)
	auth.Post("/signin", limiter.New(limiter.Config{
		Max:          lim.SignIn,
		Expiration:   10 * time.Minute,
		LimitReached: limitReached("rate.signin.hit"),
	}), d.AuthHandler.SignIn)
	auth.Post("/signout", d.AuthHandler.SignOut)
	auth.Get("/session", d.AuthHandler.Session)

	api.Get("/listings", limiter.New(limiter.Config{
		Max:        lim.Search,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
		LimitReached: limitReached("rate.search.hit"),
	}), d.SearchHandler.List)
	api.Get("/listings/featured", d.SearchHandler.Featured)
	api.Get("/listings/:id", d.ListingHandler.Get)
	api.Post("/listings", landlord, d.ListingHandler.Create)
	api.Put("/listings/:id", landlord, d.ListingHandler.Update)
	api.Post("/listings/:id/publish", landlord, d.ListingHandler.Publish)
	api.Post("/listings/:id/status", landlord, d.ListingHandler.SetStatus)
	api.Delete("/listings/:id", landlord, d.ListingHandler.Delete)
	api.Post("/listings/:id/inquiries", tenant, d.InquiryHandler.Create)

	api.Get("/inquiries", user, d.InquiryHandler.Inbox)
	api.Get("/inquiries/:id/replies", user, d.InquiryHandler.Replies)
	api.Post("/inquiries/:id/replies", user, d.InquiryHandler.Reply)

	api.Get("/dashboard/stats", landlord, d.DashboardHandler.Stats)
	api.Get("/dashboard/listings", landlord, d.DashboardHandler.MyListings)

	api.Post("/media/photos", landlord, d.MediaHandler.Upload)
	api.Delete("/media/photos", landlord, d.MediaHandler.Remove)

	api.Post("/functions/inquiry-reply", user, d.FunctionsHandler.InquiryReply)
	api.Post("/functions/contact", limiter.New(limiter.Config{
		Max:          lim.Contact,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|contact" },
		LimitReached: limitReached("rate.contact.hit"),
	}), d.FunctionsHandler.Contact)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
