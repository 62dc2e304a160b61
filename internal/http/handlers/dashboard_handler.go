package handlers

import (
	"github.com/gofiber/fiber/v2"

	"rentspace/internal/services"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
	Listings  *services.ListingService
}

func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Dashboard.ComputeStats(c.UserContext(), identity(c).UserID)
	if err != nil {
		return fail(c, "dashboard.stats.fail", err)
	}
	return c.JSON(st)
}

func (h *DashboardHandler) MyListings(c *fiber.Ctx) error {
	ls, err := h.Listings.ListMine(c.UserContext(), identity(c))
	if err != nil {
		return fail(c, "dashboard.listings.fail", err)
	}
	return c.JSON(fiber.Map{"listings": ls})
}
