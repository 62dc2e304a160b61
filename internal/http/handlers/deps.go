package handlers

import (
	"github.com/jmoiron/sqlx"

	"rentspace/internal/cache"
	"rentspace/internal/config"
	"rentspace/internal/notify"
	"rentspace/internal/repos"
	"rentspace/internal/services"
	"rentspace/internal/storage"
)

// Infra is the set of backends chosen at startup.
type Infra struct {
	Cache    cache.Store
	Store    storage.ObjectStore
	Notifier *notify.Notifier
}

type Deps struct {
	AuthSvc      *services.AuthService
	CookieSecure bool

	AuthHandler      *AuthHandler
	ListingHandler   *ListingHandler
	SearchHandler    *SearchHandler
	DashboardHandler *DashboardHandler
	InquiryHandler   *InquiryHandler
	MediaHandler     *MediaHandler
	FunctionsHandler *FunctionsHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, infra Infra) *Deps {
	userRepo := repos.NewUserRepo(db)
	listingRepo := repos.NewListingRepo(db)
	feeRepo := repos.NewFeeRepo(db)
	inquiryRepo := repos.NewInquiryRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	listingSvc := services.NewListingService(listingRepo, feeRepo, infra.Cache, services.FeePolicy(cfg.FeeFailurePolicy))
	searchSvc := services.NewSearchService(listingRepo, infra.Cache, cfg.FeaturedTTL, cfg.FeaturedLimit)
	dashSvc := services.NewDashboardService(listingRepo, inquiryRepo)
	inquirySvc := services.NewInquiryService(inquiryRepo, listingRepo)
	mediaSvc := services.NewMediaService(infra.Store)
	callbackSvc := services.NewCallbackService(inquirySvc, infra.Notifier)

	return &Deps{
		AuthSvc:          authSvc,
		CookieSecure:     cfg.CookieSecure,
		AuthHandler:      &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		ListingHandler:   &ListingHandler{Listings: listingSvc},
		SearchHandler:    &SearchHandler{Search: searchSvc},
		DashboardHandler: &DashboardHandler{Dashboard: dashSvc, Listings: listingSvc},
		InquiryHandler:   &InquiryHandler{Inquiries: inquirySvc},
		MediaHandler:     &MediaHandler{Media: mediaSvc},
		FunctionsHandler: &FunctionsHandler{Callbacks: callbackSvc},
	}
}
