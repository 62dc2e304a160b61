package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rentspace/internal/cache"
	"rentspace/internal/domain"
	applog "rentspace/internal/log"
	"rentspace/internal/validate"
)

// FeePolicy decides what happens to a freshly inserted listing when its fees fail to save.
type FeePolicy string

const (
	FeeKeep       FeePolicy = "keep"
	FeeCompensate FeePolicy = "compensate"
)

// ErrFeesNotSaved is returned by Submit when the listing row was written but the fee batch was not.
var ErrFeesNotSaved = errors.New("additional fees could not be saved")

type listingStore interface {
	Insert(ctx context.Context, l *domain.Listing) error
	UpdateFields(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, id string) (*domain.Listing, error)
	SetStatus(ctx context.Context, id string, status domain.ListingStatus, updatedAt, publishedAt string) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListByLandlord(ctx context.Context, landlordID string) ([]domain.Listing, error)
}

type feeStore interface {
	InsertBatch(ctx context.Context, fees []domain.AdditionalFee) error
	ListByListing(ctx context.Context, listingID string) ([]domain.AdditionalFee, error)
	DeleteByListing(ctx context.Context, listingID string) error
}

type ListingService struct {
	Listings listingStore
	Fees     feeStore
	Cache    cache.Store
	Policy   FeePolicy
	Now      func() time.Time
}

func NewListingService(listings listingStore, fees feeStore, c cache.Store, policy FeePolicy) *ListingService {
	if policy == "" {
		policy = FeeKeep
	}
	return &ListingService{Listings: listings, Fees: fees, Cache: c, Policy: policy}
}

// Submit stores a new listing and then its fees. A non-draft must pass the publish rules first;
// a draft is stored as given. The returned listing is non-nil whenever its row exists, even alongside an error.
func (s *ListingService) Submit(ctx context.Context, id *domain.Identity, form domain.ListingForm, isDraft bool) (*domain.Listing, error) {
	if err := requireLandlord(id); err != nil {
		return nil, err
	}
	if !isDraft {
		if err := publishable(&form); err != nil {
			return nil, err
		}
	}

	now := domain.FormatTime(clock(s.Now))
	l := listingFromForm(form)
	l.ID = uuid.NewString()
	l.LandlordID = id.UserID
	l.CreatedAt = now
	l.Status = domain.StatusDraft
	if !isDraft {
		l.Status = domain.StatusActive
		l.PublishedAt = now
	}
	if err := s.Listings.Insert(ctx, l); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	fees := feesFromForm(l.ID, form.AdditionalFees, now)
	if err := s.Fees.InsertBatch(ctx, fees); err != nil {
		if s.Policy == FeeCompensate {
			if derr := s.Listings.Delete(ctx, l.ID); derr != nil {
				applog.L().Error("listing.compensate.fail", zap.String("listing_id", l.ID), zap.Error(derr))
				return l, fmt.Errorf("%w: %v", ErrFeesNotSaved, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrFeesNotSaved, err)
		}
		s.invalidateFeatured(ctx)
		return l, fmt.Errorf("%w: %v", ErrFeesNotSaved, err)
	}
	l.Fees = fees
	s.invalidateFeatured(ctx)
	return l, nil
}

// Update replaces the editable fields and the fee set. An active listing must keep passing the publish rules.
func (s *ListingService) Update(ctx context.Context, id *domain.Identity, listingID string, form domain.ListingForm) (*domain.Listing, error) {
	cur, err := s.owned(ctx, id, listingID)
	if err != nil {
		return nil, err
	}
	if cur.Status == domain.StatusActive {
		if err := publishable(&form); err != nil {
			return nil, err
		}
	}

	now := domain.FormatTime(clock(s.Now))
	next := listingFromForm(form)
	next.ID = cur.ID
	next.LandlordID = cur.LandlordID
	next.Status = cur.Status
	next.Views = cur.Views
	next.CreatedAt = cur.CreatedAt
	next.PublishedAt = cur.PublishedAt
	next.UpdatedAt = now
	if err := s.Listings.UpdateFields(ctx, next); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	if err := s.Fees.DeleteByListing(ctx, cur.ID); err != nil {
		return nil, fmt.Errorf("clear fees: %w", err)
	}
	fees := feesFromForm(cur.ID, form.AdditionalFees, now)
	if err := s.Fees.InsertBatch(ctx, fees); err != nil {
		return next, fmt.Errorf("%w: %v", ErrFeesNotSaved, err)
	}
	next.Fees = fees
	s.invalidateFeatured(ctx)
	return next, nil
}

// Publish validates the stored listing and makes it active.
func (s *ListingService) Publish(ctx context.Context, id *domain.Identity, listingID string) (*domain.Listing, error) {
	cur, err := s.owned(ctx, id, listingID)
	if err != nil {
		return nil, err
	}
	if cur.Status == domain.StatusActive {
		return nil, conflict("listing is already active")
	}
	fees, err := s.Fees.ListByListing(ctx, cur.ID)
	if err != nil {
		return nil, fmt.Errorf("load fees: %w", err)
	}
	form := domain.FormFromListing(cur)
	for _, f := range fees {
		form.AdditionalFees = append(form.AdditionalFees, domain.FeeInput{Name: f.Name, Amount: f.Amount, Frequency: f.Frequency})
	}
	if err := publishable(&form); err != nil {
		return nil, err
	}
	now := domain.FormatTime(clock(s.Now))
	if err := s.Listings.SetStatus(ctx, cur.ID, domain.StatusActive, now, now); err != nil {
		return nil, fmt.Errorf("publish listing: %w", err)
	}
	cur.Status = domain.StatusActive
	cur.UpdatedAt = now
	cur.PublishedAt = now
	s.invalidateFeatured(ctx)
	return cur, nil
}

// SetStatus marks a published listing rented or inactive.
func (s *ListingService) SetStatus(ctx context.Context, id *domain.Identity, listingID string, status domain.ListingStatus) (*domain.Listing, error) {
	if status != domain.StatusRented && status != domain.StatusInactive {
		return nil, invalid("status", "Status must be rented or inactive")
	}
	cur, err := s.owned(ctx, id, listingID)
	if err != nil {
		return nil, err
	}
	if cur.Status == domain.StatusDraft {
		return nil, conflict("a draft must be published first")
	}
	if cur.Status == status {
		return nil, conflict("listing is already " + string(status))
	}
	now := domain.FormatTime(clock(s.Now))
	if err := s.Listings.SetStatus(ctx, cur.ID, status, now, ""); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	cur.Status = status
	cur.UpdatedAt = now
	s.invalidateFeatured(ctx)
	return cur, nil
}

// Delete removes the listing row only; its fee rows are left in place.
func (s *ListingService) Delete(ctx context.Context, id *domain.Identity, listingID string) error {
	if _, err := s.owned(ctx, id, listingID); err != nil {
		return err
	}
	if err := s.Listings.Delete(ctx, listingID); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	s.invalidateFeatured(ctx)
	return nil
}

// Get returns a listing with its fees. Only the owner sees a listing that is not active.
// Every read of an active listing by someone other than the owner counts as a view.
func (s *ListingService) Get(ctx context.Context, id *domain.Identity, listingID string) (*domain.Listing, error) {
	l, err := s.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	owner := id != nil && id.UserID == l.LandlordID
	if l.Status != domain.StatusActive && !owner {
		return nil, ErrNotFound
	}
	if l.Status == domain.StatusActive && !owner {
		if err := s.Listings.IncrementViews(ctx, l.ID); err != nil {
			return nil, fmt.Errorf("count view: %w", err)
		}
		l.Views++
	}
	fees, err := s.Fees.ListByListing(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("load fees: %w", err)
	}
	l.Fees = fees
	return l, nil
}

func (s *ListingService) ListMine(ctx context.Context, id *domain.Identity) ([]domain.Listing, error) {
	if err := requireLandlord(id); err != nil {
		return nil, err
	}
	return s.Listings.ListByLandlord(ctx, id.UserID)
}

func (s *ListingService) owned(ctx context.Context, id *domain.Identity, listingID string) (*domain.Listing, error) {
	if err := requireLandlord(id); err != nil {
		return nil, err
	}
	l, err := s.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.LandlordID != id.UserID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *ListingService) invalidateFeatured(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, featuredCacheKey); err != nil {
		applog.L().Warn("cache.invalidate.fail", zap.String("key", featuredCacheKey), zap.Error(err))
	}
}

func listingFromForm(f domain.ListingForm) *domain.Listing {
	return &domain.Listing{
		Title:              strings.TrimSpace(f.Title),
		Description:        strings.TrimSpace(f.Description),
		PropertyType:       strings.TrimSpace(f.PropertyType),
		StreetAddress:      strings.TrimSpace(f.StreetAddress),
		Locality:           strings.TrimSpace(f.Locality),
		City:               strings.TrimSpace(f.City),
		State:              strings.TrimSpace(f.State),
		Pincode:            strings.TrimSpace(f.Pincode),
		MonthlyRent:        f.MonthlyRent,
		SecurityDeposit:    f.SecurityDeposit,
		MaintenanceCharges: f.MaintenanceCharges,
		SizeSqft:           f.SizeSqft,
		Bedrooms:           f.Bedrooms,
		Bathrooms:          f.Bathrooms,
		FurnishingStatus:   strings.TrimSpace(f.FurnishingStatus),
		AvailabilityDate:   strings.TrimSpace(f.AvailabilityDate),
		PreferredTenants:   strings.TrimSpace(f.PreferredTenants),
		Amenities:          domain.StringList(f.Amenities),
		Utilities:          domain.StringList(f.Utilities),
		Photos:             domain.StringList(f.Photos),
		FurnishedItems:     domain.StringList(f.FurnishedItems),
		VideoURL:           strings.TrimSpace(f.VideoURL),
	}
}

func feesFromForm(listingID string, in []domain.FeeInput, now string) []domain.AdditionalFee {
	out := make([]domain.AdditionalFee, 0, len(in))
	for _, f := range in {
		freq := f.Frequency
		if freq == "" {
			freq = "monthly"
		}
		out = append(out, domain.AdditionalFee{
			ID:        uuid.NewString(),
			ListingID: listingID,
			Name:      strings.TrimSpace(f.Name),
			Amount:    f.Amount,
			Frequency: freq,
			CreatedAt: now,
		})
	}
	return out
}

func publishable(f *domain.ListingForm) error {
	if err := fromFieldError(validate.ListingForPublish(f)); err != nil {
		return err
	}
	return fromFieldError(validate.ListingShape(f))
}
