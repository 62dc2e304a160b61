package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rentspace/internal/domain"
)

type listingStats interface {
	CountByLandlord(ctx context.Context, landlordID string, status domain.ListingStatus) (int, error)
	RentedRevenue(ctx context.Context, landlordID string) (float64, error)
	TotalViews(ctx context.Context, landlordID string) (int, error)
}

type inquiryCounter interface {
	CountForLandlord(ctx context.Context, landlordID string) (int, error)
}

type DashboardService struct {
	Listings  listingStats
	Inquiries inquiryCounter
}

func NewDashboardService(listings listingStats, inquiries inquiryCounter) *DashboardService {
	return &DashboardService{Listings: listings, Inquiries: inquiries}
}

// ComputeStats runs the independent reads concurrently. The figures are not a consistent
// snapshot. The first failure cancels the remaining reads and is returned.
func (s *DashboardService) ComputeStats(ctx context.Context, landlordID string) (domain.DashboardStats, error) {
	var st domain.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.Listings.CountByLandlord(gctx, landlordID, "")
		if err != nil {
			return fmt.Errorf("total properties: %w", err)
		}
		st.TotalProperties = n
		return nil
	})
	g.Go(func() error {
		n, err := s.Listings.CountByLandlord(gctx, landlordID, domain.StatusActive)
		if err != nil {
			return fmt.Errorf("active properties: %w", err)
		}
		st.ActiveProperties = n
		return nil
	})
	g.Go(func() error {
		v, err := s.Listings.RentedRevenue(gctx, landlordID)
		if err != nil {
			return fmt.Errorf("monthly revenue: %w", err)
		}
		st.MonthlyRevenue = v
		return nil
	})
	g.Go(func() error {
		n, err := s.Listings.TotalViews(gctx, landlordID)
		if err != nil {
			return fmt.Errorf("total views: %w", err)
		}
		st.TotalViews = n
		return nil
	})
	g.Go(func() error {
		n, err := s.Inquiries.CountForLandlord(gctx, landlordID)
		if err != nil {
			return fmt.Errorf("new inquiries: %w", err)
		}
		st.NewInquiries = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.DashboardStats{}, err
	}
	return st, nil
}
