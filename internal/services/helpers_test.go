package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"rentspace/internal/domain"
	"rentspace/internal/repos"
)

var (
	asha   = &domain.Identity{UserID: "u-asha", Email: "asha@rentspace.test", Name: "Asha", Role: domain.RoleLandlord}
	vikram = &domain.Identity{UserID: "u-vikram", Email: "vikram@rentspace.test", Name: "Vikram", Role: domain.RoleLandlord}
	neha   = &domain.Identity{UserID: "u-neha", Email: "neha@rentspace.test", Name: "Neha", Role: domain.RoleTenant}
	rahul  = &domain.Identity{UserID: "u-rahul", Email: "rahul@rentspace.test", Name: "Rahul", Role: domain.RoleTenant}
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// stepClock returns a time source that advances one second per call, starting well after the seed data.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func f64(v float64) *float64 { return &v }

func completeForm(city string) domain.ListingForm {
	return domain.ListingForm{
		Title:            "Sunny 1BHK",
		PropertyType:     "apartment",
		StreetAddress:    "7 Lake View Rd",
		City:             city,
		State:            "Kerala",
		Pincode:          "682001",
		FurnishingStatus: "furnished",
		AvailabilityDate: "2030-02-01",
		MonthlyRent:      f64(12000),
		SecurityDeposit:  f64(36000),
		Photos:           []string{"a.jpg", "b.jpg", "c.jpg"},
	}
}

func countRows(t *testing.T, db *sqlx.DB, q string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, q, args...); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
