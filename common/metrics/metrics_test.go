package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareRecordsRouteTemplate(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/admin/users/:id/votes", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users/42/votes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/admin/users/:id/votes", "200"))
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestHTTPMiddlewareSkipsHealth(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 0, testutil.CollectAndCount(m.RequestsTotal))
}

func TestPartyMetricsRegister(t *testing.T) {
	reg := NewRegistry()
	m := NewPartyMetrics(reg)

	m.VotesTotal.WithLabelValues("1").Inc()
	m.ExchangeTransitions.WithLabelValues("started").Add(2)
	m.ExchangesByStatus.WithLabelValues("searching").Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesTotal.WithLabelValues("1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExchangeTransitions.WithLabelValues("started")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExchangesByStatus.WithLabelValues("searching")))
}
