package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rentspace/internal/cache"
	"rentspace/internal/domain"
	applog "rentspace/internal/log"
	"rentspace/internal/repos"
	"rentspace/internal/validate"
)

const featuredCacheKey = "listings:featured"

// budgetBounds maps each budget bucket to its upper rent bound. "25000+" is accepted
// by clients but has no bound, so it is absent here like any unknown bucket.
var budgetBounds = map[string]float64{
	"0-5000":      5000,
	"5000-10000":  10000,
	"10000-15000": 15000,
	"15000-25000": 25000,
}

type SearchQuery struct {
	Location     string
	PropertyType string
	Budget       string
	Page         int
	PageSize     int
}

type SearchService struct {
	Listings      *repos.ListingRepo
	Cache         cache.Store
	FeaturedTTL   time.Duration
	FeaturedLimit int
}

func NewSearchService(listings *repos.ListingRepo, c cache.Store, ttl time.Duration, limit int) *SearchService {
	return &SearchService{Listings: listings, Cache: c, FeaturedTTL: ttl, FeaturedLimit: limit}
}

// Filter turns raw query values into a repository filter. Unknown property types and
// budget buckets are dropped rather than rejected.
func (q SearchQuery) Filter() (repos.ListingFilter, error) {
	var f repos.ListingFilter
	loc, ok := validate.Location(q.Location)
	if !ok {
		return f, invalid("location", "Location may contain letters, digits, spaces and . , ' - only")
	}
	f.Location = strings.ToLower(loc)
	if pt := strings.TrimSpace(q.PropertyType); domain.IsPropertyType(pt) {
		f.PropertyType = pt
	}
	if bound, ok := budgetBounds[strings.TrimSpace(q.Budget)]; ok {
		f.MaxRent = &bound
	}
	return f, nil
}

// Search returns one page of active listings, newest first.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) ([]domain.Listing, error) {
	f, err := q.Filter()
	if err != nil {
		return nil, err
	}
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 12
	}
	if size > 50 {
		size = 50
	}
	out, err := s.Listings.Search(ctx, f, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return out, nil
}

// Featured serves the newest active listings from the cache, refilling it on a miss.
// A failing cache degrades to a direct query.
func (s *SearchService) Featured(ctx context.Context) ([]domain.Listing, error) {
	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, featuredCacheKey)
		switch {
		case err == nil:
			var out []domain.Listing
			if jerr := json.Unmarshal(raw, &out); jerr == nil {
				return out, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			applog.L().Warn("cache.get.fail", zap.String("key", featuredCacheKey), zap.Error(err))
		}
	}

	limit := s.FeaturedLimit
	if limit < 1 {
		limit = 6
	}
	out, err := s.Listings.Search(ctx, repos.ListingFilter{}, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("featured listings: %w", err)
	}
	if s.Cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.Cache.Set(ctx, featuredCacheKey, raw, s.FeaturedTTL); err != nil {
				applog.L().Warn("cache.set.fail", zap.String("key", featuredCacheKey), zap.Error(err))
			}
		}
	}
	return out, nil
}
