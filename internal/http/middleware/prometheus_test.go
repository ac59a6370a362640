package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware(t *testing.T) {
	// Use a fresh registry for each test to avoid "duplicate registration" panic
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/documents/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("counts requests with route pattern label", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/documents/123", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/documents/:id", "200"))
		assert.Equal(t, float64(1), count)
	})

	t.Run("does not count /metrics itself", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		_, err := app.Test(req)
		require.NoError(t, err)

		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/metrics", "200"))
		assert.Equal(t, float64(0), count)
	})

	t.Run("counts 404s with raw path fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/unknown", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		// Fiber reports the catch-all "/" route for unmatched paths; the
		// raw path must win so 404s don't land on the root label.
		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/unknown", "404"))
		assert.Equal(t, float64(1), count)
		rootCount := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/", "404"))
		assert.Equal(t, float64(0), rootCount)
	})

	t.Run("registered root route keeps its own label", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/", "200"))
		assert.Equal(t, float64(1), count)
	})

	t.Run("registering twice fails", func(t *testing.T) {
		_, err := NewPrometheusMiddleware(reg)
		assert.Error(t, err)
	})
}
