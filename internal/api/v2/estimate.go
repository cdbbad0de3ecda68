package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greencanopy/allometree/internal/allometry"
)

// CoefficientsResponse is the equation used for an estimate.
type CoefficientsResponse struct {
	Intercept   float64 `json:"intercept"`
	Slope       float64 `json:"slope"`
	WoodDensity float64 `json:"wood_density"`
	Family      string  `json:"family"`
}

func newCoefficientsResponse(c allometry.CoefficientSet) *CoefficientsResponse {
	return &CoefficientsResponse{
		Intercept:   c.Intercept,
		Slope:       c.Slope,
		WoodDensity: c.WoodDensity,
		Family:      string(c.Family),
	}
}

// EstimateResponse is the result of GET /estimate.
type EstimateResponse struct {
	AGBKg        float64               `json:"agb_kg"`
	Found        bool                  `json:"found"`
	Species      string                `json:"species"`
	Region       string                `json:"region"`
	DBHCM        float64               `json:"dbh_cm"`
	Coefficients *CoefficientsResponse `json:"coefficients,omitempty"`
}

// GetEstimate handles GET /api/v2/estimate?species=&region=&dbh=.
// Species and region must match an indexed equation exactly. A missing model
// is not an error: the response has found=false and agb_kg=0.
func (c *Controller) GetEstimate(ctx echo.Context) error {
	speciesName := ctx.QueryParam("species")
	region := ctx.QueryParam("region")
	if speciesName == "" || region == "" {
		return c.HandleError(ctx, nil, "species and region query parameters are required", http.StatusBadRequest)
	}

	dbh := DefaultDBH
	if raw := ctx.QueryParam("dbh"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return c.HandleError(ctx, err, "dbh must be a finite number of centimetres", http.StatusBadRequest)
		}
		dbh = v
	}

	agb, coeffs, found := c.engine.Estimate(dbh, speciesName, region)
	resp := EstimateResponse{
		AGBKg:   agb,
		Found:   found,
		Species: speciesName,
		Region:  region,
		DBHCM:   dbh,
	}
	if found {
		resp.Coefficients = newCoefficientsResponse(coeffs)
	}
	return ctx.JSON(http.StatusOK, resp)
}
