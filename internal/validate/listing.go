package validate

import (
	"strings"

	"rentspace/internal/domain"
)

// MinPublishPhotos is the photo count a listing needs before it can go live.
const MinPublishPhotos = 3

// FieldError names the first rule a listing form failed.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

type rule struct {
	field   string
	message string
	ok      func(f *domain.ListingForm) bool
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

// Numbers count as missing when null or zero.
func positive(v *float64) bool { return v != nil && *v != 0 }

// Order matters: the first failing rule is reported.
var publishRules = []rule{
	{"property_type", "Property type is required", func(f *domain.ListingForm) bool { return present(f.PropertyType) }},
	{"street_address", "Street address is required", func(f *domain.ListingForm) bool { return present(f.StreetAddress) }},
	{"city", "City is required", func(f *domain.ListingForm) bool { return present(f.City) }},
	{"state", "State is required", func(f *domain.ListingForm) bool { return present(f.State) }},
	{"pincode", "Pincode is required", func(f *domain.ListingForm) bool { return present(f.Pincode) }},
	{"furnishing_status", "Furnishing status is required", func(f *domain.ListingForm) bool { return present(f.FurnishingStatus) }},
	{"availability_date", "Availability date is required", func(f *domain.ListingForm) bool { return present(f.AvailabilityDate) }},
	{"monthly_rent", "Monthly rent is required", func(f *domain.ListingForm) bool { return positive(f.MonthlyRent) }},
	{"security_deposit", "Security deposit is required", func(f *domain.ListingForm) bool { return positive(f.SecurityDeposit) }},
	{"photos", "Please upload at least 3 photos", func(f *domain.ListingForm) bool { return len(f.Photos) >= MinPublishPhotos }},
}

// ListingForPublish returns nil when the form may be published, otherwise the first failure.
func ListingForPublish(f *domain.ListingForm) *FieldError {
	for _, r := range publishRules {
		if !r.ok(f) {
			return &FieldError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

// PublishRequiredFields lists the fields checked before publishing, in check order.
func PublishRequiredFields() []string {
	out := make([]string, 0, len(publishRules))
	for _, r := range publishRules {
		out = append(out, r.field)
	}
	return out
}

// ListingShape checks the values of a listing about to go live. Drafts are stored unchecked,
// so Publish runs it against the stored row and its fees.
func ListingShape(f *domain.ListingForm) *FieldError {
	if present(f.PropertyType) && !domain.IsPropertyType(f.PropertyType) {
		return &FieldError{Field: "property_type", Message: "Unknown property type"}
	}
	if present(f.FurnishingStatus) && !domain.IsFurnishingStatus(f.FurnishingStatus) {
		return &FieldError{Field: "furnishing_status", Message: "Unknown furnishing status"}
	}
	for _, v := range []*float64{f.MonthlyRent, f.SecurityDeposit, f.MaintenanceCharges, f.SizeSqft} {
		if v != nil && *v < 0 {
			return &FieldError{Field: "amounts", Message: "Amounts cannot be negative"}
		}
	}
	for _, fee := range f.AdditionalFees {
		if !present(fee.Name) {
			return &FieldError{Field: "additional_fees", Message: "Each fee needs a name"}
		}
		if fee.Amount < 0 {
			return &FieldError{Field: "additional_fees", Message: "Fee amount cannot be negative"}
		}
		switch fee.Frequency {
		case "", "one_time", "monthly", "yearly":
		default:
			return &FieldError{Field: "additional_fees", Message: "Unknown fee frequency"}
		}
	}
	return nil
}
