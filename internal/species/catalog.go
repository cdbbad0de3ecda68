// Package species provides the native species reference used to pick a
// species for an ecoregion before estimating biomass.
package species

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
)

// Reference table column names
const (
	ColEcoregion = "ecoregion"
	ColSpecies   = "species_name"
)

// SuggestedEcoregions are offered when no choice is made explicitly. Other values are accepted.
var SuggestedEcoregions = []string{"temperate", "tropical", "boreal"}

// DefaultEcoregion is the ecoregion selected by default.
const DefaultEcoregion = "temperate"

// ErrNoSpecies is returned when an ecoregion has no native species.
var ErrNoSpecies = errors.NewStd("no native species found for this ecoregion")

// Catalog maps ecoregions to their native species. It is immutable after loading
// and safe for concurrent use.
type Catalog struct {
	byRegion map[string][]string // folded ecoregion -> species in file order
	regions  []string            // folded ecoregions in first-seen order
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NewCatalog builds a catalog from (ecoregion, species) pairs.
func NewCatalog(pairs [][2]string) *Catalog {
	c := &Catalog{byRegion: make(map[string][]string)}
	for _, p := range pairs {
		region, name := fold(p[0]), strings.TrimSpace(p[1])
		if region == "" || name == "" {
			continue
		}
		if _, seen := c.byRegion[region]; !seen {
			c.regions = append(c.regions, region)
		}
		c.byRegion[region] = append(c.byRegion[region], name)
	}
	return c
}

// Read parses a native species table with ecoregion and species_name columns.
func Read(ctx context.Context, r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("native species table is empty")
		}
		return nil, parseError(err)
	}

	regionCol, speciesCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColEcoregion:
			regionCol = i
		case ColSpecies:
			speciesCol = i
		}
	}
	if regionCol < 0 || speciesCol < 0 {
		return nil, parseError(fmt.Errorf("native species table needs %q and %q columns", ColEcoregion, ColSpecies))
	}

	var pairs [][2]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		if regionCol >= len(row) || speciesCol >= len(row) {
			continue
		}
		pairs = append(pairs, [2]string{row[regionCol], row[speciesCol]})
	}
	return NewCatalog(pairs), nil
}

func parseError(err error) error {
	return errors.New(err).
		Component("species").
		Category(errors.CategoryFileParsing).
		Context("operation", "read_native_species").
		Build()
}

// Load reads the native species table at path.
func Load(ctx context.Context, path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(fmt.Errorf("failed to open native species table: %w", err)).
			Component("species").
			Category(category).
			Context("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	c, err := Read(ctx, f)
	if err != nil {
		return nil, err
	}
	GetLogger().Debug("loaded native species",
		logger.String("path", path),
		logger.Int("ecoregions", len(c.regions)))
	return c, nil
}

// Ecoregions returns the ecoregions present in the table, folded to lower case,
// in the order they first appear.
func (c *Catalog) Ecoregions() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.regions)
}

// SpeciesFor returns the native species of ecoregion, matched case-insensitively.
// ErrNoSpecies is returned when there are none.
func (c *Catalog) SpeciesFor(ecoregion string) ([]string, error) {
	var names []string
	if c != nil {
		names = c.byRegion[fold(ecoregion)]
	}
	if len(names) == 0 {
		return nil, errors.New(ErrNoSpecies).
			Component("species").
			Category(errors.CategoryNotFound).
			Context("ecoregion", ecoregion).
			Build()
	}
	return slices.Clone(names), nil
}

// DefaultSpecies returns the first native species listed for ecoregion.
func (c *Catalog) DefaultSpecies(ecoregion string) (string, error) {
	names, err := c.SpeciesFor(ecoregion)
	if err != nil {
		return "", err
	}
	return names[0], nil
}

// Title formats an ecoregion name for display.
func Title(ecoregion string) string {
	return cases.Title(language.English).String(ecoregion)
}
