package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "rentspace/internal/log"
	"rentspace/internal/services"
	"rentspace/internal/validate"
)

type SearchHandler struct {
	Search *services.SearchService
}

// GET /api/v1/listings?location=&type=&budget=&page=&pageSize=
func (h *SearchHandler) List(c *fiber.Ctx) error {
	q := services.SearchQuery{
		Location:     c.Query("location"),
		PropertyType: c.Query("type"),
		Budget:       c.Query("budget"),
		Page:         validate.Page(c.Query("page")),
		PageSize:     validate.PageSize(c.Query("pageSize")),
	}
	listings, err := h.Search.Search(c.UserContext(), q)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			applog.Security(c, "search.validation.fail", map[string]any{"field": ve.Field, "value": q.Location})
		}
		return fail(c, "search.error", err)
	}
	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
		"page":     q.Page,
		"pageSize": q.PageSize,
	})
}

// GET /api/v1/listings/featured
func (h *SearchHandler) Featured(c *fiber.Ctx) error {
	listings, err := h.Search.Featured(c.UserContext())
	if err != nil {
		return fail(c, "search.featured.error", err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}
