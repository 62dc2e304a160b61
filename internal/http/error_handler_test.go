package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rentspace/internal/http/handlers"
	applog "rentspace/internal/log"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })
	return logs
}

func TestErrorHandlerHidesServerErrors(t *testing.T) {
	logs := observe(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: relation listings does not exist") })
	app.Get("/gone", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusGone, "listing archived") })
	app.Get("/fiber500", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusInternalServerError, "stack detail") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "relation")
	assert.Contains(t, string(raw), handlers.GenericError)

	resp, err = app.Test(httptest.NewRequest("GET", "/fiber500", nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "stack detail")

	resp, err = app.Test(httptest.NewRequest("GET", "/gone", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	raw, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "listing archived")

	entries := logs.FilterMessage("server.error").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestApp(t, generousLimits())
	resp, body := env.do(t, "GET", "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body["error"])
}
