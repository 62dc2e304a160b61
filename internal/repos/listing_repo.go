package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rentspace/internal/domain"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingCols = `
    id, landlord_id, title, description, property_type, street_address, locality, city, state, pincode,
    monthly_rent, security_deposit, maintenance_charges, size_sqft, bedrooms, bathrooms,
    furnishing_status, availability_date, preferred_tenants,
    amenities_json, utilities_json, photos_json, furnished_items_json, video_url,
    status, views, created_at, COALESCE(updated_at,'') AS updated_at, COALESCE(published_at,'') AS published_at`

// ListingFilter is the search predicate set; zero values mean "no filter".
type ListingFilter struct {
	Location     string   // substring of city OR state, case-insensitive
	PropertyType string   // exact
	MaxRent      *float64 // monthly_rent <= MaxRent
}

// Insert writes a new listing row. Id and timestamps are assigned by the caller.
func (r *ListingRepo) Insert(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO listings(
	    id, landlord_id, title, description, property_type, street_address, locality, city, state, pincode,
	    monthly_rent, security_deposit, maintenance_charges, size_sqft, bedrooms, bathrooms,
	    furnishing_status, availability_date, preferred_tenants,
	    amenities_json, utilities_json, photos_json, furnished_items_json, video_url,
	    status, views, created_at, published_at)
	  VALUES(
	    :id, :landlord_id, :title, :description, :property_type, :street_address, :locality, :city, :state, :pincode,
	    :monthly_rent, :security_deposit, :maintenance_charges, :size_sqft, :bedrooms, :bathrooms,
	    :furnishing_status, :availability_date, :preferred_tenants,
	    :amenities_json, :utilities_json, :photos_json, :furnished_items_json, :video_url,
	    :status, 0, :created_at, NULLIF(:published_at,''))
	`, l)
	return err
}

// UpdateFields overwrites the editable columns (not status, views or timestamps other than updated_at).
func (r *ListingRepo) UpdateFields(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.NamedExecContext(ctx, `
	  UPDATE listings SET
	    title = :title, description = :description, property_type = :property_type,
	    street_address = :street_address, locality = :locality, city = :city, state = :state, pincode = :pincode,
	    monthly_rent = :monthly_rent, security_deposit = :security_deposit, maintenance_charges = :maintenance_charges,
	    size_sqft = :size_sqft, bedrooms = :bedrooms, bathrooms = :bathrooms,
	    furnishing_status = :furnishing_status, availability_date = :availability_date, preferred_tenants = :preferred_tenants,
	    amenities_json = :amenities_json, utilities_json = :utilities_json, photos_json = :photos_json,
	    furnished_items_json = :furnished_items_json, video_url = :video_url,
	    updated_at = :updated_at
	  WHERE id = :id
	`, l)
	return err
}

func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.GetContext(ctx, &l, `SELECT `+listingCols+` FROM listings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SetStatus moves a listing to status; publishedAt is stamped only when non-empty.
func (r *ListingRepo) SetStatus(ctx context.Context, id string, status domain.ListingStatus, updatedAt, publishedAt string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE listings
	  SET status = ?, updated_at = ?, published_at = COALESCE(NULLIF(?,''), published_at)
	  WHERE id = ?
	`, status, updatedAt, publishedAt, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ListingRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE listings SET views = views + 1 WHERE id = ?`, id)
	return err
}

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ListingRepo) ListByLandlord(ctx context.Context, landlordID string) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+listingCols+`
	  FROM listings
	  WHERE landlord_id = ?
	  ORDER BY created_at DESC, id DESC
	`, landlordID)
	return out, err
}

// Search returns active listings matching f, newest first with id as tie-break.
func (r *ListingRepo) Search(ctx context.Context, f ListingFilter, limit, offset int) ([]domain.Listing, error) {
	where := `status = 'active'`
	args := []any{}
	if f.Location != "" {
		where += ` AND (LOWER(city) LIKE ? ESCAPE '\' OR LOWER(state) LIKE ? ESCAPE '\')`
		pat := "%" + escapeLike(f.Location) + "%"
		args = append(args, pat, pat)
	}
	if f.PropertyType != "" {
		where += ` AND property_type = ?`
		args = append(args, f.PropertyType)
	}
	if f.MaxRent != nil {
		where += ` AND monthly_rent <= ?`
		args = append(args, *f.MaxRent)
	}

	q := `
	  SELECT ` + listingCols + `
	  FROM listings
	  WHERE ` + where + `
	  ORDER BY created_at DESC, id DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	out := []domain.Listing{}
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

// CountByLandlord counts a landlord's listings, optionally restricted to one status.
func (r *ListingRepo) CountByLandlord(ctx context.Context, landlordID string, status domain.ListingStatus) (int, error) {
	var n int
	var err error
	if status == "" {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings WHERE landlord_id = ?`, landlordID)
	} else {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings WHERE landlord_id = ? AND status = ?`, landlordID, status)
	}
	return n, err
}

// RentedRevenue sums monthly rent over rented listings only.
func (r *ListingRepo) RentedRevenue(ctx context.Context, landlordID string) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
	  SELECT COALESCE(SUM(monthly_rent), 0)
	  FROM listings
	  WHERE landlord_id = ? AND status = 'rented'
	`, landlordID)
	return total, err
}

func (r *ListingRepo) TotalViews(ctx context.Context, landlordID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COALESCE(SUM(views), 0) FROM listings WHERE landlord_id = ?`, landlordID)
	return n, err
}
