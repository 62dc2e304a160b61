package services

import (
	"context"

	"go.uber.org/zap"

	"rentspace/internal/domain"
	applog "rentspace/internal/log"
	"rentspace/internal/notify"
)

// CallbackService backs the function-style endpoints the client calls after a user action.
type CallbackService struct {
	Inquiries *InquiryService
	Notifier  *notify.Notifier
}

func NewCallbackService(inquiries *InquiryService, n *notify.Notifier) *CallbackService {
	return &CallbackService{Inquiries: inquiries, Notifier: n}
}

// InquiryReply stores the reply and queues a notice for the other participant.
func (s *CallbackService) InquiryReply(ctx context.Context, id *domain.Identity, inquiryID, message string) (*ReplyResult, error) {
	res, err := s.Inquiries.ReplyAs(ctx, id, inquiryID, message)
	if err != nil {
		return nil, err
	}
	applog.L().Info("notify.reply.queued",
		zap.String("kind", "audit"),
		zap.String("inquiry_id", inquiryID),
		zap.String("reply_id", res.Reply.ID),
		zap.String("sender_role", string(res.Reply.SenderRole)),
		zap.String("recipient_id", res.RecipientID),
		zap.String("listing_title", res.ListingTitle),
	)
	return res, nil
}

// Contact forwards the public contact form to support and acknowledges the sender.
func (s *CallbackService) Contact(ctx context.Context, req notify.ContactRequest) error {
	return s.Notifier.SendContact(ctx, req)
}
