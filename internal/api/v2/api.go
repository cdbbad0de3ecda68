// Package api provides the v2 JSON endpoints for biomass estimation and the
// native species reference.
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
	"github.com/greencanopy/allometree/internal/species"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	engine       *allometry.Engine
	catalog      *species.Catalog
	speciesCache *cache.Cache
	middleware   []echo.MiddlewareFunc
	httpMetrics  *metrics.HTTPMetrics
	logger       logger.Logger
	startTime    time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithCatalog sets the native species reference served under /ecoregions and /species.
func WithCatalog(c *species.Catalog) Option {
	return func(ctrl *Controller) { ctrl.catalog = c }
}

// WithHTTPMetrics records cache lookups in m.
func WithHTTPMetrics(m *metrics.HTTPMetrics) Option {
	return func(ctrl *Controller) { ctrl.httpMetrics = m }
}

// WithLogger overrides the api module logger.
func WithLogger(l logger.Logger) Option {
	return func(ctrl *Controller) {
		if l != nil {
			ctrl.logger = l
		}
	}
}

// WithMiddleware adds middleware to every v2 route.
func WithMiddleware(m ...echo.MiddlewareFunc) Option {
	return func(ctrl *Controller) { ctrl.middleware = append(ctrl.middleware, m...) }
}

// WithCacheTTL sets the lifetime of cached species lists.
func WithCacheTTL(ttl time.Duration) Option {
	return func(ctrl *Controller) {
		if ttl > 0 {
			ctrl.speciesCache = cache.New(ttl, 2*ttl)
		}
	}
}

// New creates the controller and registers its routes under /api/v2.
func New(e *echo.Echo, engine *allometry.Engine, opts ...Option) *Controller {
	c := &Controller{
		Echo:      e,
		engine:    engine,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Group = e.Group(APIPrefix, c.middleware...)
	if c.logger == nil {
		c.logger = GetLogger()
	}
	if c.speciesCache == nil {
		c.speciesCache = cache.New(DefaultCacheTTL, 2*DefaultCacheTTL)
	}

	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/ecoregions", c.GetEcoregions)
	c.Group.GET("/species", c.GetSpecies)
	c.Group.GET("/estimate", c.GetEstimate)
	c.Group.GET("/equations", c.GetEquations)
	c.Group.POST("/equations/reload", c.ReloadEquations)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError logs err with a correlation id and writes it as a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	log := c.logger.WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API client error", fields...)
	}

	return ctx.JSON(code, resp)
}
