package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is how timestamps are stored. Fixed-width so text ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

type ListingStatus string

const (
	StatusDraft         ListingStatus = "draft"
	StatusActive        ListingStatus = "active"
	StatusPendingReview ListingStatus = "pending_review"
	StatusRented        ListingStatus = "rented"
	StatusInactive      ListingStatus = "inactive"
)

var ErrUnknownStatus = errors.New("unknown listing status")

func ParseStatus(s string) (ListingStatus, error) {
	switch st := ListingStatus(strings.TrimSpace(s)); st {
	case StatusDraft, StatusActive, StatusPendingReview, StatusRented, StatusInactive:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Scan rejects values outside the enum instead of defaulting them.
func (s *ListingStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("listing status: unsupported type %T", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s ListingStatus) Value() (driver.Value, error) { return string(s), nil }

// PropertyTypes is the closed set accepted by listings and the search filter.
var PropertyTypes = []string{"apartment", "independent_house", "villa", "studio", "pg", "commercial"}

func IsPropertyType(s string) bool {
	for _, t := range PropertyTypes {
		if t == s {
			return true
		}
	}
	return false
}

var FurnishingStatuses = []string{"furnished", "semi_furnished", "unfurnished"}

func IsFurnishingStatus(s string) bool {
	for _, f := range FurnishingStatuses {
		if f == s {
			return true
		}
	}
	return false
}

// StringList is a JSON-encoded text column (amenities, photos, ...).
type StringList []string

func (l *StringList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("string list: unsupported type %T", src)
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Listing struct {
	ID                 string        `db:"id" json:"id"`
	LandlordID         string        `db:"landlord_id" json:"landlord_id"`
	Title              string        `db:"title" json:"title"`
	Description        string        `db:"description" json:"description"`
	PropertyType       string        `db:"property_type" json:"property_type"`
	StreetAddress      string        `db:"street_address" json:"street_address"`
	Locality           string        `db:"locality" json:"locality"`
	City               string        `db:"city" json:"city"`
	State              string        `db:"state" json:"state"`
	Pincode            string        `db:"pincode" json:"pincode"`
	MonthlyRent        *float64      `db:"monthly_rent" json:"monthly_rent"`
	SecurityDeposit    *float64      `db:"security_deposit" json:"security_deposit"`
	MaintenanceCharges *float64      `db:"maintenance_charges" json:"maintenance_charges"`
	SizeSqft           *float64      `db:"size_sqft" json:"size_sqft"`
	Bedrooms           *int          `db:"bedrooms" json:"bedrooms"`
	Bathrooms          *int          `db:"bathrooms" json:"bathrooms"`
	FurnishingStatus   string        `db:"furnishing_status" json:"furnishing_status"`
	AvailabilityDate   string        `db:"availability_date" json:"availability_date"`
	PreferredTenants   string        `db:"preferred_tenants" json:"preferred_tenants"`
	Amenities          StringList    `db:"amenities_json" json:"amenities"`
	Utilities          StringList    `db:"utilities_json" json:"utilities"`
	Photos             StringList    `db:"photos_json" json:"photos"`
	FurnishedItems     StringList    `db:"furnished_items_json" json:"furnished_items"`
	VideoURL           string        `db:"video_url" json:"video_url"`
	Status             ListingStatus `db:"status" json:"status"`
	Views              int           `db:"views" json:"views"`
	CreatedAt          string        `db:"created_at" json:"created_at"`
	UpdatedAt          string        `db:"updated_at" json:"updated_at"`
	PublishedAt        string        `db:"published_at" json:"published_at,omitempty"`

	Fees []AdditionalFee `db:"-" json:"additional_fees,omitempty"`
}

type AdditionalFee struct {
	ID        string  `db:"id" json:"id"`
	ListingID string  `db:"listing_id" json:"listing_id"`
	Name      string  `db:"name" json:"name"`
	Amount    float64 `db:"amount" json:"amount"`
	Frequency string  `db:"frequency" json:"frequency"` // one_time | monthly | yearly
	CreatedAt string  `db:"created_at" json:"created_at"`
}

type Inquiry struct {
	ID        string `db:"id" json:"id"`
	ListingID string `db:"listing_id" json:"listing_id"`
	TenantID  string `db:"tenant_id" json:"tenant_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Message   string `db:"message" json:"message"`
	CreatedAt string `db:"created_at" json:"created_at"`

	ListingTitle string `db:"listing_title" json:"listing_title,omitempty"`
}

type SenderRole string

const (
	SenderLandlord SenderRole = "landlord"
	SenderTenant   SenderRole = "tenant"
)

type InquiryReply struct {
	ID         string     `db:"id" json:"id"`
	InquiryID  string     `db:"inquiry_id" json:"inquiry_id"`
	SenderID   string     `db:"sender_id" json:"sender_id"`
	SenderRole SenderRole `db:"sender_role" json:"sender_role"`
	Message    string     `db:"message" json:"message"`
	CreatedAt  string     `db:"created_at" json:"created_at"`
}

type DashboardStats struct {
	TotalProperties  int     `json:"totalProperties"`
	ActiveProperties int     `json:"activeProperties"`
	MonthlyRevenue   float64 `json:"monthlyRevenue"`
	TotalViews       int     `json:"totalViews"`
	NewInquiries     int     `json:"newInquiries"`
}
