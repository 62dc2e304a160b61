package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"rentspace/internal/cache"
	"rentspace/internal/config"
	"rentspace/internal/http/handlers"
	"rentspace/internal/notify"
	"rentspace/internal/repos"
	"rentspace/internal/storage"
)

type mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	mail *mailbox
}

func generousLimits() handlers.Limits {
	return handlers.Limits{Global: 1000, Search: 1000, SignIn: 1000, Contact: 1000}
}

func newTestApp(t *testing.T, lim handlers.Limits) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.JWTSecret = "handler-test-secret"
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	mail := &mailbox{}
	n, err := notify.NewNotifier(mail, "support@rentspace.test")
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	deps := handlers.NewDeps(db, cfg, handlers.Infra{Cache: cache.NewMemoryStore(), Store: store, Notifier: n})
	return &testEnv{app: handlers.NewApp(deps, lim), db: db, mail: mail}
}

type reqOpt func(*http.Request)

func withBearer(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(name, val string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: val}) }
}

// withCSRF sends the double-submit pair the csrf middleware expects.
func withCSRF(tok string) reqOpt {
	return func(r *http.Request) {
		r.Header.Set("X-Csrf-Token", tok)
		r.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	}
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

// csrfToken performs a safe request so the middleware issues a token cookie.
func (e *testEnv) csrfToken(t *testing.T) string {
	t.Helper()
	resp, _ := e.do(t, "GET", "/healthz", nil)
	tok := cookieValue(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// signIn logs a seeded user in through the cookie flow and returns the bearer token and sid.
func (e *testEnv) signIn(t *testing.T, email string) (token, sid string) {
	t.Helper()
	csrf := e.csrfToken(t)
	resp, body := e.do(t, "POST", "/api/v1/auth/signin",
		map[string]string{"email": email, "password": "Passw0rd!"}, withCSRF(csrf))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign in %s: status %d body %v", email, resp.StatusCode, body)
	}
	token, _ = body["token"].(string)
	sid = cookieValue(resp, "sid")
	if token == "" || sid == "" {
		t.Fatalf("sign in %s: missing token or sid", email)
	}
	return token, sid
}

func completeListing(city string) map[string]any {
	return map[string]any{
		"title":             "Garden flat",
		"property_type":     "apartment",
		"street_address":    "3 Temple St",
		"city":              city,
		"state":             "Tamil Nadu",
		"pincode":           "600001",
		"furnishing_status": "unfurnished",
		"availability_date": "2030-03-01",
		"monthly_rent":      9000,
		"security_deposit":  27000,
		"photos":            []string{"1.jpg", "2.jpg", "3.jpg"},
		"additional_fees":   []map[string]any{{"name": "Water", "amount": 300, "frequency": "monthly"}},
	}
}
