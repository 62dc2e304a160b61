package domain

// ListingForm is the submission payload, flattened from the four client sub-forms
// (property info, rent and fees, photos and video, amenities).
type ListingForm struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PropertyType     string   `json:"property_type"`
	StreetAddress    string   `json:"street_address"`
	Locality         string   `json:"locality"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Pincode          string   `json:"pincode"`
	SizeSqft         *float64 `json:"size_sqft"`
	Bedrooms         *int     `json:"bedrooms"`
	Bathrooms        *int     `json:"bathrooms"`
	FurnishingStatus string   `json:"furnishing_status"`
	AvailabilityDate string   `json:"availability_date"`
	PreferredTenants string   `json:"preferred_tenants"`

	MonthlyRent        *float64   `json:"monthly_rent"`
	SecurityDeposit    *float64   `json:"security_deposit"`
	MaintenanceCharges *float64   `json:"maintenance_charges"`
	AdditionalFees     []FeeInput `json:"additional_fees"`

	Photos   []string `json:"photos"`
	VideoURL string   `json:"video_url"`

	Amenities      []string `json:"amenities"`
	Utilities      []string `json:"utilities"`
	FurnishedItems []string `json:"furnished_items"`
}

type FeeInput struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
}

// FormFromListing rebuilds the publish-relevant form view of a stored listing.
func FormFromListing(l *Listing) ListingForm {
	return ListingForm{
		Title:              l.Title,
		Description:        l.Description,
		PropertyType:       l.PropertyType,
		StreetAddress:      l.StreetAddress,
		Locality:           l.Locality,
		City:               l.City,
		State:              l.State,
		Pincode:            l.Pincode,
		SizeSqft:           l.SizeSqft,
		Bedrooms:           l.Bedrooms,
		Bathrooms:          l.Bathrooms,
		FurnishingStatus:   l.FurnishingStatus,
		AvailabilityDate:   l.AvailabilityDate,
		PreferredTenants:   l.PreferredTenants,
		MonthlyRent:        l.MonthlyRent,
		SecurityDeposit:    l.SecurityDeposit,
		MaintenanceCharges: l.MaintenanceCharges,
		Photos:             l.Photos,
		VideoURL:           l.VideoURL,
		Amenities:          l.Amenities,
		Utilities:          l.Utilities,
		FurnishedItems:     l.FurnishedItems,
	}
}
