package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"twitt/internal/models"
	"twitt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_RecordsBoundaryStatusAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = prev })

	app := newTestApp()
	app.Use(requestid.New(), Tracing(), ContextMiddleware(), RequestLogger())
	app.Get("/missing", func(c *fiber.Ctx) error { return models.ErrPostNotFound })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)

	rejected := entries[0].ContextMap()
	assert.Equal(t, "request rejected", entries[0].Message)
	assert.EqualValues(t, http.StatusNotFound, rejected["status"])
	assert.NotEmpty(t, rejected["request_id"])
	assert.NotEmpty(t, rejected["trace_id"])

	assert.Equal(t, "request processed", entries[1].Message)
	assert.EqualValues(t, http.StatusOK, entries[1].ContextMap()["status"])
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(models.ErrPostIDInvalid))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusOf(fiber.ErrRequestEntityTooLarge))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(assert.AnError))
}
