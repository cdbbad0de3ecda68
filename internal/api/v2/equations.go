package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
)

// EquationInfo is one indexed equation.
type EquationInfo struct {
	Species string `json:"species"`
	Region  string `json:"region"`
	*CoefficientsResponse
}

// BuildStatsResponse reports how the active index was built.
type BuildStatsResponse struct {
	Seen        int            `json:"seen"`
	Indexed     int            `json:"indexed"`
	Overwritten int            `json:"overwritten"`
	Skipped     map[string]int `json:"skipped"`
}

func newBuildStatsResponse(s allometry.BuildStats) BuildStatsResponse {
	skipped := make(map[string]int, len(s.Skipped))
	for reason, n := range s.Skipped {
		skipped[string(reason)] = n
	}
	return BuildStatsResponse{
		Seen:        s.Seen,
		Indexed:     s.Indexed,
		Overwritten: s.Overwritten,
		Skipped:     skipped,
	}
}

// EquationsResponse is the result of GET /equations.
type EquationsResponse struct {
	Source    string             `json:"source"`
	Count     int                `json:"count"`
	Equations []EquationInfo     `json:"equations"`
	Stats     BuildStatsResponse `json:"stats"`
}

// GetEquations handles GET /api/v2/equations, optionally filtered by ?region=.
func (c *Controller) GetEquations(ctx echo.Context) error {
	idx := c.engine.Index()
	region := ctx.QueryParam("region")

	equations := make([]EquationInfo, 0, idx.Len())
	for _, key := range idx.Keys() {
		if region != "" && key.Region != region {
			continue
		}
		coeffs, _ := idx.Lookup(key.Species, key.Region)
		equations = append(equations, EquationInfo{
			Species:              key.Species,
			Region:               key.Region,
			CoefficientsResponse: newCoefficientsResponse(coeffs),
		})
	}

	return ctx.JSON(http.StatusOK, EquationsResponse{
		Source:    c.engine.SourceName(),
		Count:     len(equations),
		Equations: equations,
		Stats:     newBuildStatsResponse(idx.Stats()),
	})
}

// ReloadEquations handles POST /api/v2/equations/reload. The active index is
// replaced only when the rebuild succeeds.
func (c *Controller) ReloadEquations(ctx echo.Context) error {
	start := time.Now()
	stats, err := c.engine.Reload(ctx.Request().Context())
	if err != nil {
		if errors.IsCategory(err, errors.CategoryState) {
			return c.HandleError(ctx, err, "equations were not loaded from a reloadable source", http.StatusConflict)
		}
		return c.HandleError(ctx, err, "failed to reload equations", http.StatusInternalServerError)
	}

	c.logger.WithContext(ctx.Request().Context()).Info("equations reloaded via API",
		logger.Int("equations", c.engine.Index().Len()),
		logger.Duration("duration", time.Since(start)))

	return ctx.JSON(http.StatusOK, map[string]any{
		"source": c.engine.SourceName(),
		"count":  c.engine.Index().Len(),
		"stats":  newBuildStatsResponse(stats),
	})
}
