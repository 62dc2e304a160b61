package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"rentspace/internal/domain"
	applog "rentspace/internal/log"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer, and each ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Ensure demo users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	// Seed demo listings if the table is empty
	if err := seedListingsIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Profiles
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('tenant','landlord')),
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie / token claim
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Listings
CREATE TABLE IF NOT EXISTS listings(
  id TEXT PRIMARY KEY,
  landlord_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  property_type TEXT NOT NULL DEFAULT '',
  street_address TEXT NOT NULL DEFAULT '',
  locality TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  pincode TEXT NOT NULL DEFAULT '',
  monthly_rent NUMERIC NULL,
  security_deposit NUMERIC NULL,
  maintenance_charges NUMERIC NULL,
  size_sqft NUMERIC NULL,
  bedrooms INTEGER NULL,
  bathrooms INTEGER NULL,
  furnishing_status TEXT NOT NULL DEFAULT '',
  availability_date TEXT NOT NULL DEFAULT '',
  preferred_tenants TEXT NOT NULL DEFAULT '',
  amenities_json TEXT NOT NULL DEFAULT '[]',
  utilities_json TEXT NOT NULL DEFAULT '[]',
  photos_json TEXT NOT NULL DEFAULT '[]',
  furnished_items_json TEXT NOT NULL DEFAULT '[]',
  video_url TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'draft'
    CHECK (status IN ('draft','active','pending_review','rented','inactive')),
  views INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT,
  published_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_listings_landlord   ON listings(landlord_id);
CREATE INDEX IF NOT EXISTS idx_listings_status     ON listings(status);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
CREATE INDEX IF NOT EXISTS idx_listings_city       ON listings(LOWER(city));

-- Fees: no FK cascade; deleting a listing leaves its fee rows behind.
CREATE TABLE IF NOT EXISTS additional_fees(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  name TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  frequency TEXT NOT NULL DEFAULT 'monthly',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fees_listing ON additional_fees(listing_id);

-- Inquiries & replies (append-only)
CREATE TABLE IF NOT EXISTS inquiries(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  tenant_id TEXT NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inquiries_listing ON inquiries(listing_id);
CREATE INDEX IF NOT EXISTS idx_inquiries_tenant  ON inquiries(tenant_id);

CREATE TABLE IF NOT EXISTS inquiry_replies(
  id TEXT PRIMARY KEY,
  inquiry_id TEXT NOT NULL REFERENCES inquiries(id),
  sender_id TEXT NOT NULL,
  sender_role TEXT NOT NULL CHECK (sender_role IN ('landlord','tenant')),
  message TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replies_inquiry ON inquiry_replies(inquiry_id, created_at);
`
	_, err := db.Exec(schema)
	return err
}

// seedUsers ensures two landlords and two tenants exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-asha", "asha@rentspace.test", "Asha", domain.RoleLandlord, "Passw0rd!"),
		mk("u-vikram", "vikram@rentspace.test", "Vikram", domain.RoleLandlord, "Passw0rd!"),
		mk("u-neha", "neha@rentspace.test", "Neha", domain.RoleTenant, "Passw0rd!"),
		mk("u-rahul", "rahul@rentspace.test", "Rahul", domain.RoleTenant, "Passw0rd!"),
	}

	now := domain.FormatTime(time.Now())
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,created_at)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedListingsIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM listings`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed", zap.String("what", "demo listings"))

	base := time.Now().Add(-72 * time.Hour)
	ts := func(h int) string { return domain.FormatTime(base.Add(time.Duration(h) * time.Hour)) }

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()
	tx.MustExec(`INSERT INTO listings(
	    id,landlord_id,title,property_type,street_address,city,state,pincode,monthly_rent,security_deposit,
	    bedrooms,bathrooms,furnishing_status,availability_date,amenities_json,photos_json,status,views,created_at,published_at)
	  VALUES
	  ('lst-pune-2bhk','u-asha','2BHK near Koregaon Park','apartment','14 North Main Rd','Pune','Maharashtra','411001',22000,66000,
	    2,2,'semi_furnished','2026-11-01','["lift","power_backup"]','["listings/pune/1.jpg","listings/pune/2.jpg","listings/pune/3.jpg"]','active',41,?,?),
	  ('lst-blr-studio','u-asha','Studio in Indiranagar','studio','100 Feet Rd','Bengaluru','Karnataka','560038',14500,30000,
	    1,1,'furnished','2026-10-20','["wifi"]','["listings/blr/1.jpg","listings/blr/2.jpg","listings/blr/3.jpg"]','active',17,?,?),
	  ('lst-goa-villa','u-vikram','Villa with garden','villa','Candolim Beach Rd','North Goa','Goa','403515',65000,200000,
	    4,4,'furnished','2026-12-01','["pool","garden"]','["listings/goa/1.jpg","listings/goa/2.jpg","listings/goa/3.jpg"]','rented',93,?,?)`,
		ts(0), ts(0), ts(1), ts(1), ts(2), ts(2))
	tx.MustExec(`INSERT INTO additional_fees(id,listing_id,name,amount,frequency,created_at)
	  VALUES ('fee-pune-maint','lst-pune-2bhk','Society maintenance',2500,'monthly',?)`, ts(0))
	return tx.Commit()
}
