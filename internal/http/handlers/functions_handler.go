package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "rentspace/internal/log"
	"rentspace/internal/notify"
	"rentspace/internal/services"
)

// FunctionsHandler serves the callback-style endpoints under /api/v1/functions.
type FunctionsHandler struct {
	Callbacks *services.CallbackService
}

type inquiryReplyRequest struct {
	InquiryID string `json:"inquiry_id" validate:"required,max=64"`
	Message   string `json:"message" validate:"required,max=2000"`
}

func (h *FunctionsHandler) InquiryReply(c *fiber.Ctx) error {
	var req inquiryReplyRequest
	if err := bind(c, &req); err != nil {
		return fail(c, "functions.inquiry_reply.fail", err)
	}
	res, err := h.Callbacks.InquiryReply(c.UserContext(), identity(c), req.InquiryID, req.Message)
	if err != nil {
		return fail(c, "functions.inquiry_reply.fail", err)
	}
	applog.Audit(c, "functions.inquiry_reply", map[string]any{"inquiry_id": req.InquiryID, "reply_id": res.Reply.ID})
	return c.JSON(fiber.Map{"success": true, "reply": res.Reply})
}

// Contact always answers with a success flag; failures carry a user-safe error.
func (h *FunctionsHandler) Contact(c *fiber.Ctx) error {
	var req notify.ContactRequest
	if err := bind(c, &req); err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "error": ve.Message, "field": ve.Field})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": GenericError})
	}
	if err := h.Callbacks.Contact(c.UserContext(), req); err != nil {
		applog.Error(c, "functions.contact.fail", err, map[string]any{"email": req.Email})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": GenericError})
	}
	applog.Audit(c, "functions.contact", map[string]any{"email": req.Email, "subject": req.Subject})
	return c.JSON(fiber.Map{"success": true})
}
