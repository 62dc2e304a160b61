package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rentspace/internal/domain"
	applog "rentspace/internal/log"
	"rentspace/internal/services"
	"rentspace/internal/validate"
)

type ListingHandler struct {
	Listings *services.ListingService
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=rented inactive"`
}

func listingID(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", services.ErrNotFound
	}
	return id, nil
}

// POST /api/v1/listings?draft=true|false
func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var form domain.ListingForm
	if err := c.BodyParser(&form); err != nil {
		return fail(c, "listing.submit.fail", &services.ValidationError{Field: "body", Message: "Request body is not valid JSON"})
	}
	draft := c.QueryBool("draft", false)
	l, err := h.Listings.Submit(c.UserContext(), identity(c), form, draft)
	if err != nil {
		if l != nil && errors.Is(err, services.ErrFeesNotSaved) {
			applog.Error(c, "listing.fees.fail", err, map[string]any{"listing_id": l.ID})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": GenericError, "id": l.ID})
		}
		return fail(c, "listing.submit.fail", err)
	}
	applog.Audit(c, "listing.submit", map[string]any{"listing_id": l.ID, "status": l.Status, "fees": len(l.Fees)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": l.ID, "status": l.Status, "redirect": "/dashboard"})
}

// PUT /api/v1/listings/:id
func (h *ListingHandler) Update(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.update.fail", err)
	}
	var form domain.ListingForm
	if err := c.BodyParser(&form); err != nil {
		return fail(c, "listing.update.fail", &services.ValidationError{Field: "body", Message: "Request body is not valid JSON"})
	}
	l, err := h.Listings.Update(c.UserContext(), identity(c), id, form)
	if err != nil {
		return fail(c, "listing.update.fail", err)
	}
	applog.Audit(c, "listing.update", map[string]any{"listing_id": l.ID})
	return c.JSON(l)
}

// POST /api/v1/listings/:id/publish
func (h *ListingHandler) Publish(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.publish.fail", err)
	}
	l, err := h.Listings.Publish(c.UserContext(), identity(c), id)
	if err != nil {
		return fail(c, "listing.publish.fail", err)
	}
	applog.Audit(c, "listing.publish", map[string]any{"listing_id": l.ID})
	return c.JSON(fiber.Map{"id": l.ID, "status": l.Status})
}

// POST /api/v1/listings/:id/status
func (h *ListingHandler) SetStatus(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.status.fail", err)
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "listing.status.fail", err)
	}
	l, err := h.Listings.SetStatus(c.UserContext(), identity(c), id, domain.ListingStatus(req.Status))
	if err != nil {
		return fail(c, "listing.status.fail", err)
	}
	applog.Audit(c, "listing.status", map[string]any{"listing_id": l.ID, "status": l.Status})
	return c.JSON(fiber.Map{"id": l.ID, "status": l.Status})
}

// DELETE /api/v1/listings/:id
func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.delete.fail", err)
	}
	if err := h.Listings.Delete(c.UserContext(), identity(c), id); err != nil {
		return fail(c, "listing.delete.fail", err)
	}
	applog.Audit(c, "listing.delete", map[string]any{"listing_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.get.fail", err)
	}
	l, err := h.Listings.Get(c.UserContext(), identity(c), id)
	if err != nil {
		return fail(c, "listing.get.fail", err)
	}
	return c.JSON(l)
}
