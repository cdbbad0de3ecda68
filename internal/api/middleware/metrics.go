package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
)

// NewHTTPMetrics records method, route, status and latency of every request.
// The route template is used as the path label to keep cardinality bounded.
func NewHTTPMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, path, status, time.Since(start).Seconds())
			return err
		}
	}
}

// NewRequestID sets an X-Request-ID header on every response and stores the
// id as the request's trace id for logging.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// RateLimitConfig describes the per client token bucket.
type RateLimitConfig struct {
	Rate      float64       // sustained requests per second, 0 disables limiting
	Burst     int           // bucket size
	ExpiresIn time.Duration // idle time after which a client's bucket is dropped
}

// NewRateLimiter limits requests per client IP. Rejected requests get a 429
// JSON body and are counted in m.
func NewRateLimiter(cfg RateLimitConfig, m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	if cfg.Rate <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Rate),
				Burst:     max(cfg.Burst, 1),
				ExpiresIn: cfg.ExpiresIn,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			if m != nil {
				m.RecordRateLimited(c.Path())
			}
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded, please retry later",
			})
		},
	})
}

// TraceID returns the request id stored by NewRequestID, if any.
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(logger.TraceIDKey).(string); ok {
		return id
	}
	return ""
}
