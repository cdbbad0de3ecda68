package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
)

func newHTTPMetrics(t *testing.T) (*metrics.HTTPMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)
	return m, reg
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))
	return rec
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	m, reg := newHTTPMetrics(t)
	e := echo.New()
	e.Use(NewRateLimiter(RateLimitConfig{Rate: 0.001, Burst: 1, ExpiresIn: time.Minute}, m))
	e.GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/limited").Code)

	rec := serve(e, http.MethodGet, "/limited")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	expected := `
# HELP http_rate_limited_total Total number of requests rejected by the rate limiter
# TYPE http_rate_limited_total counter
http_rate_limited_total{path="/limited"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_rate_limited_total"))
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	e := echo.New()
	e.Use(NewRateLimiter(RateLimitConfig{}, nil))
	e.GET("/open", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for range 50 {
		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/open").Code)
	}
}

func TestRequestIDPropagatesToContext(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	e := echo.New()
	e.Use(NewRequestID())

	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = TraceID(c.Request().Context())
		return c.String(http.StatusOK, "pong")
	})

	rec := serve(e, http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, seen)
}

func TestHTTPMetricsUsesRouteTemplate(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	m, reg := newHTTPMetrics(t)
	e := echo.New()
	e.Use(NewHTTPMetrics(m))
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/teapot", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

	serve(e, http.MethodGet, "/items/1")
	serve(e, http.MethodGet, "/items/2")
	serve(e, http.MethodGet, "/teapot")

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/items/:id",status_code="200"} 2
http_requests_total{method="GET",path="/teapot",status_code="418"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestRequestLoggerWritesRequestFields(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil)

	e := echo.New()
	e.Use(NewRequestID())
	e.Use(NewRequestLogger(log))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, http.MethodGet, "/ping")
	id := rec.Header().Get(echo.HeaderXRequestID)

	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "uri=/ping")
	assert.Contains(t, out, "status=204")
	assert.Contains(t, out, "request_id="+id)
}

func TestRequestLoggerSkipper(t *testing.T) {
	t.Parallel()
	t.Attr("component", "middleware")

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil)

	e := echo.New()
	e.Use(NewRequestLoggerWithSkipper(log, func(c echo.Context) bool {
		return c.Path() == "/metrics"
	}))
	e.GET("/metrics", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	serve(e, http.MethodGet, "/metrics")
	assert.Empty(t, buf.String())
}
