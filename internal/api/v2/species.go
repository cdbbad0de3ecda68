package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/species"
)

// EcoregionInfo describes one ecoregion of the native species reference.
type EcoregionInfo struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	SpeciesCount int    `json:"species_count"`
}

// SpeciesListResponse is the result of GET /species.
type SpeciesListResponse struct {
	Ecoregion string   `json:"ecoregion"`
	Species   []string `json:"species"`
}

// GetEcoregions handles GET /api/v2/ecoregions
func (c *Controller) GetEcoregions(ctx echo.Context) error {
	if c.catalog == nil {
		return c.HandleError(ctx, nil, "native species reference is not loaded", http.StatusServiceUnavailable)
	}

	regions := c.catalog.Ecoregions()
	out := make([]EcoregionInfo, 0, len(regions))
	for _, name := range regions {
		names, _ := c.catalog.SpeciesFor(name)
		out = append(out, EcoregionInfo{
			Name:         name,
			Title:        species.Title(name),
			SpeciesCount: len(names),
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"ecoregions": out})
}

// GetSpecies handles GET /api/v2/species?ecoregion=. Ecoregions match
// case-insensitively and results are cached.
func (c *Controller) GetSpecies(ctx echo.Context) error {
	if c.catalog == nil {
		return c.HandleError(ctx, nil, "native species reference is not loaded", http.StatusServiceUnavailable)
	}

	ecoregion := strings.TrimSpace(ctx.QueryParam("ecoregion"))
	if ecoregion == "" {
		ecoregion = species.DefaultEcoregion
	}
	key := cases.Fold().String(ecoregion)

	if cached, ok := c.speciesCache.Get(key); ok {
		c.recordCache(true)
		return ctx.JSON(http.StatusOK, cached)
	}
	c.recordCache(false)

	names, err := c.catalog.SpeciesFor(ecoregion)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "no native species found for this ecoregion", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "failed to list native species", http.StatusInternalServerError)
	}

	resp := SpeciesListResponse{Ecoregion: key, Species: names}
	c.speciesCache.SetDefault(key, resp)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) recordCache(hit bool) {
	if c.httpMetrics != nil {
		c.httpMetrics.RecordCacheLookup(speciesCacheName, hit)
	}
}
