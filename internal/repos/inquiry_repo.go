package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rentspace/internal/domain"
)

type InquiryRepo struct{ db *sqlx.DB }

func NewInquiryRepo(db *sqlx.DB) *InquiryRepo { return &InquiryRepo{db: db} }

// InquiryThread is an inquiry joined with the owner of the listing it targets.
type InquiryThread struct {
	domain.Inquiry
	LandlordID string `db:"landlord_id"`
}

func (r *InquiryRepo) Create(ctx context.Context, q *domain.Inquiry) error {
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO inquiries(id, listing_id, tenant_id, name, email, phone, message, created_at)
	  VALUES(:id, :listing_id, :tenant_id, :name, :email, :phone, :message, :created_at)
	`, q)
	return err
}

// Thread loads an inquiry with its listing's landlord. A deleted listing yields an empty landlord id.
func (r *InquiryRepo) Thread(ctx context.Context, inquiryID string) (*InquiryThread, error) {
	var t InquiryThread
	err := r.db.GetContext(ctx, &t, `
	  SELECT q.id, q.listing_id, q.tenant_id, q.name, q.email, q.phone, q.message, q.created_at,
	         COALESCE(l.title,'') AS listing_title, COALESCE(l.landlord_id,'') AS landlord_id
	  FROM inquiries q
	  LEFT JOIN listings l ON l.id = q.listing_id
	  WHERE q.id = ?
	`, inquiryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *InquiryRepo) ListForLandlord(ctx context.Context, landlordID string) ([]domain.Inquiry, error) {
	out := []domain.Inquiry{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT q.id, q.listing_id, q.tenant_id, q.name, q.email, q.phone, q.message, q.created_at,
	         l.title AS listing_title
	  FROM inquiries q
	  JOIN listings l ON l.id = q.listing_id
	  WHERE l.landlord_id = ?
	  ORDER BY q.created_at DESC, q.rowid DESC
	`, landlordID)
	return out, err
}

func (r *InquiryRepo) ListForTenant(ctx context.Context, tenantID string) ([]domain.Inquiry, error) {
	out := []domain.Inquiry{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT q.id, q.listing_id, q.tenant_id, q.name, q.email, q.phone, q.message, q.created_at,
	         COALESCE(l.title,'') AS listing_title
	  FROM inquiries q
	  LEFT JOIN listings l ON l.id = q.listing_id
	  WHERE q.tenant_id = ?
	  ORDER BY q.created_at DESC, q.rowid DESC
	`, tenantID)
	return out, err
}

// CountForLandlord counts inquiries on any of the landlord's listings, with no time window.
func (r *InquiryRepo) CountForLandlord(ctx context.Context, landlordID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*)
	  FROM inquiries
	  WHERE listing_id IN (SELECT id FROM listings WHERE landlord_id = ?)
	`, landlordID)
	return n, err
}

func (r *InquiryRepo) InsertReply(ctx context.Context, rep *domain.InquiryReply) error {
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO inquiry_replies(id, inquiry_id, sender_id, sender_role, message, created_at)
	  VALUES(:id, :inquiry_id, :sender_id, :sender_role, :message, :created_at)
	`, rep)
	return err
}

// Replies returns a thread oldest first; insertion order breaks timestamp ties.
func (r *InquiryRepo) Replies(ctx context.Context, inquiryID string) ([]domain.InquiryReply, error) {
	out := []domain.InquiryReply{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, inquiry_id, sender_id, sender_role, message, created_at
	  FROM inquiry_replies
	  WHERE inquiry_id = ?
	  ORDER BY created_at ASC, rowid ASC
	`, inquiryID)
	return out, err
}
