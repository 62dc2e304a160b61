package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"rentspace/internal/domain"
)

type FeeRepo struct{ db *sqlx.DB }

func NewFeeRepo(db *sqlx.DB) *FeeRepo { return &FeeRepo{db: db} }

// InsertBatch writes all fees in one transaction: either every row lands or none does.
func (r *FeeRepo) InsertBatch(ctx context.Context, fees []domain.AdditionalFee) error {
	if len(fees) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range fees {
		if _, err := tx.NamedExecContext(ctx, `
		  INSERT INTO additional_fees(id, listing_id, name, amount, frequency, created_at)
		  VALUES(:id, :listing_id, :name, :amount, :frequency, :created_at)
		`, f); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *FeeRepo) ListByListing(ctx context.Context, listingID string) ([]domain.AdditionalFee, error) {
	out := []domain.AdditionalFee{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, listing_id, name, amount, frequency, created_at
	  FROM additional_fees
	  WHERE listing_id = ?
	  ORDER BY created_at, rowid
	`, listingID)
	return out, err
}

func (r *FeeRepo) DeleteByListing(ctx context.Context, listingID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM additional_fees WHERE listing_id = ?`, listingID)
	return err
}
