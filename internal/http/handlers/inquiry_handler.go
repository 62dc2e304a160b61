package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "rentspace/internal/log"
	"rentspace/internal/services"
	"rentspace/internal/validate"
)

type InquiryHandler struct {
	Inquiries *services.InquiryService
}

type inquiryRequest struct {
	Name    string `json:"name" validate:"required,max=80"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Message string `json:"message" validate:"required,max=2000"`
}

type replyRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// POST /api/v1/listings/:id/inquiries
func (h *InquiryHandler) Create(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "inquiry.create.fail", err)
	}
	var req inquiryRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "inquiry.create.fail", err)
	}
	q, err := h.Inquiries.CreateInquiry(c.UserContext(), identity(c), id, services.InquiryForm{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Message: req.Message,
	})
	if err != nil {
		return fail(c, "inquiry.create.fail", err)
	}
	applog.Audit(c, "inquiry.create", map[string]any{"inquiry_id": q.ID, "listing_id": q.ListingID})
	return c.Status(fiber.StatusCreated).JSON(q)
}

// GET /api/v1/inquiries
func (h *InquiryHandler) Inbox(c *fiber.Ctx) error {
	qs, err := h.Inquiries.Inbox(c.UserContext(), identity(c))
	if err != nil {
		return fail(c, "inquiry.list.fail", err)
	}
	return c.JSON(fiber.Map{"inquiries": qs})
}

// GET /api/v1/inquiries/:id/replies
func (h *InquiryHandler) Replies(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "inquiry.replies.fail", services.ErrNotFound)
	}
	reps, err := h.Inquiries.Thread(c.UserContext(), identity(c), id)
	if err != nil {
		return fail(c, "inquiry.replies.fail", err)
	}
	return c.JSON(fiber.Map{"replies": reps})
}

// POST /api/v1/inquiries/:id/replies
func (h *InquiryHandler) Reply(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "inquiry.reply.fail", services.ErrNotFound)
	}
	var req replyRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "inquiry.reply.fail", err)
	}
	res, err := h.Inquiries.ReplyAs(c.UserContext(), identity(c), id, req.Message)
	if err != nil {
		return fail(c, "inquiry.reply.fail", err)
	}
	applog.Audit(c, "inquiry.reply", map[string]any{"inquiry_id": id, "reply_id": res.Reply.ID})
	return c.Status(fiber.StatusCreated).JSON(res.Reply)
}
