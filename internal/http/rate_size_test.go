package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRateLimit(t *testing.T) {
	logs := observe(t)
	lim := generousLimits()
	lim.Search = 3
	env := newTestApp(t, lim)

	for i := 0; i < 3; i++ {
		resp, _ := env.do(t, "GET", "/api/v1/listings", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}
	resp, body := env.do(t, "GET", "/api/v1/listings", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests. Please try again later.", body["error"])
	assert.Equal(t, 1, logs.FilterMessage("rate.search.hit").Len())

	resp, _ = env.do(t, "GET", "/api/v1/listings/featured", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the search budget does not cover other routes")
}

func TestOversizedBodyRejected(t *testing.T) {
	logs := observe(t)
	env := newTestApp(t, generousLimits())
	asha, _ := env.signIn(t, "asha@rentspace.test")

	form := completeListing("Nagpur")
	form["description"] = strings.Repeat("a", 1<<20)
	resp, body := env.do(t, "POST", "/api/v1/listings", form, withBearer(asha))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "Request body too large", body["error"])
	assert.Equal(t, 1, logs.FilterMessage("request.too_large").Len())

	var n int
	require.NoError(t, env.db.Get(&n, `SELECT COUNT(*) FROM listings WHERE city = 'Nagpur'`))
	assert.Zero(t, n)
}
