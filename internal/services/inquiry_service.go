package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentspace/internal/domain"
	"rentspace/internal/repos"
	"rentspace/internal/validate"
)

const maxMessageLen = 2000

type InquiryService struct {
	Inquiries *repos.InquiryRepo
	Listings  *repos.ListingRepo
	Now       func() time.Time
}

func NewInquiryService(inquiries *repos.InquiryRepo, listings *repos.ListingRepo) *InquiryService {
	return &InquiryService{Inquiries: inquiries, Listings: listings}
}

type InquiryForm struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// ReplyResult is a stored reply plus who should hear about it.
type ReplyResult struct {
	Reply        domain.InquiryReply
	RecipientID  string
	ListingTitle string
}

// CreateInquiry records a tenant's message about an active listing.
func (s *InquiryService) CreateInquiry(ctx context.Context, id *domain.Identity, listingID string, form InquiryForm) (*domain.Inquiry, error) {
	if id == nil {
		return nil, ErrAuthRequired
	}
	if !id.IsTenant() {
		return nil, ErrForbidden
	}
	name, ok := validate.Name(form.Name)
	if !ok {
		return nil, invalid("name", "Please enter your name")
	}
	email, ok := validate.Email(form.Email)
	if !ok {
		return nil, invalid("email", "Please enter a valid email address")
	}
	phone, ok := validate.Phone(form.Phone)
	if !ok {
		return nil, invalid("phone", "Please enter a valid phone number")
	}
	msg, ok := validate.Message(form.Message, maxMessageLen)
	if !ok {
		return nil, invalid("message", "Please enter a message")
	}

	l, err := s.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != domain.StatusActive {
		return nil, ErrNotFound
	}

	q := &domain.Inquiry{
		ID:           uuid.NewString(),
		ListingID:    l.ID,
		TenantID:     id.UserID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		Message:      msg,
		CreatedAt:    domain.FormatTime(clock(s.Now)),
		ListingTitle: l.Title,
	}
	if err := s.Inquiries.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}
	return q, nil
}

// Reply appends a message to an inquiry thread. Replies are never edited or removed.
func (s *InquiryService) Reply(ctx context.Context, inquiryID, senderID, message string, role domain.SenderRole) (*domain.InquiryReply, error) {
	if role != domain.SenderLandlord && role != domain.SenderTenant {
		return nil, invalid("sender_role", "Sender must be landlord or tenant")
	}
	msg, ok := validate.Message(message, maxMessageLen)
	if !ok {
		return nil, invalid("message", "Reply cannot be empty")
	}
	if _, err := s.Inquiries.Thread(ctx, inquiryID); err != nil {
		return nil, err
	}
	rep := &domain.InquiryReply{
		ID:         uuid.NewString(),
		InquiryID:  inquiryID,
		SenderID:   senderID,
		SenderRole: role,
		Message:    msg,
		CreatedAt:  domain.FormatTime(clock(s.Now)),
	}
	if err := s.Inquiries.InsertReply(ctx, rep); err != nil {
		return nil, fmt.Errorf("insert reply: %w", err)
	}
	return rep, nil
}

// ReplyAs posts on behalf of a thread participant, taking the sender role from who they are in the thread.
func (s *InquiryService) ReplyAs(ctx context.Context, id *domain.Identity, inquiryID, message string) (*ReplyResult, error) {
	t, role, err := s.participant(ctx, id, inquiryID)
	if err != nil {
		return nil, err
	}
	rep, err := s.Reply(ctx, inquiryID, id.UserID, message, role)
	if err != nil {
		return nil, err
	}
	recipient := t.TenantID
	if role == domain.SenderTenant {
		recipient = t.LandlordID
	}
	return &ReplyResult{Reply: *rep, RecipientID: recipient, ListingTitle: t.ListingTitle}, nil
}

// ListReplies returns a thread oldest first.
func (s *InquiryService) ListReplies(ctx context.Context, inquiryID string) ([]domain.InquiryReply, error) {
	return s.Inquiries.Replies(ctx, inquiryID)
}

// Thread is ListReplies for a participant.
func (s *InquiryService) Thread(ctx context.Context, id *domain.Identity, inquiryID string) ([]domain.InquiryReply, error) {
	if _, _, err := s.participant(ctx, id, inquiryID); err != nil {
		return nil, err
	}
	return s.ListReplies(ctx, inquiryID)
}

func (s *InquiryService) ListForLandlord(ctx context.Context, landlordID string) ([]domain.Inquiry, error) {
	return s.Inquiries.ListForLandlord(ctx, landlordID)
}

func (s *InquiryService) ListForTenant(ctx context.Context, tenantID string) ([]domain.Inquiry, error) {
	return s.Inquiries.ListForTenant(ctx, tenantID)
}

// Inbox lists received inquiries for a landlord and sent ones for a tenant.
func (s *InquiryService) Inbox(ctx context.Context, id *domain.Identity) ([]domain.Inquiry, error) {
	switch {
	case id == nil:
		return nil, ErrAuthRequired
	case id.IsLandlord():
		return s.ListForLandlord(ctx, id.UserID)
	case id.IsTenant():
		return s.ListForTenant(ctx, id.UserID)
	}
	return nil, ErrForbidden
}

func (s *InquiryService) participant(ctx context.Context, id *domain.Identity, inquiryID string) (*repos.InquiryThread, domain.SenderRole, error) {
	if id == nil {
		return nil, "", ErrAuthRequired
	}
	t, err := s.Inquiries.Thread(ctx, inquiryID)
	if err != nil {
		return nil, "", err
	}
	switch {
	case id.UserID == t.TenantID:
		return t, domain.SenderTenant, nil
	case t.LandlordID != "" && id.UserID == t.LandlordID:
		return t, domain.SenderLandlord, nil
	}
	return nil, "", ErrForbidden
}
