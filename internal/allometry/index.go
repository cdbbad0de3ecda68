package allometry

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// Key identifies an equation by exact, case-sensitive species and region.
type Key struct {
	Species string
	Region  string
}

// CoefficientSet holds the resolved parameters of one indexed equation.
type CoefficientSet struct {
	Intercept   float64
	Slope       float64
	WoodDensity float64
	Family      EquationFamily
}

// SkipReason explains why a record was left out of the index.
type SkipReason string

const (
	SkipMissingKey           SkipReason = "missing_key"
	SkipUnsupportedComponent SkipReason = "unsupported_component"
	SkipUnsupportedFamily    SkipReason = "unsupported_family"
	SkipUnparseableFormula   SkipReason = "unparseable_formula"
)

// SkipReasons lists every SkipReason in a stable order.
var SkipReasons = []SkipReason{
	SkipMissingKey,
	SkipUnsupportedComponent,
	SkipUnsupportedFamily,
	SkipUnparseableFormula,
}

// BuildStats summarizes one Build call.
type BuildStats struct {
	Seen        int                // records examined
	Indexed     int                // eligible records written, including overwrites
	Overwritten int                // eligible records that replaced an earlier one with the same key
	Skipped     map[SkipReason]int // ineligible records by reason
}

// TotalSkipped returns the number of records left out of the index.
func (s BuildStats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Index maps (species, region) to coefficients. It is immutable once built and
// safe for concurrent readers.
type Index struct {
	entries map[Key]CoefficientSet
	stats   BuildStats
}

// Build compiles records into an Index in a single pass. Ineligible records are
// dropped silently and counted in the returned index's Stats. When two eligible
// records share a key the later one wins.
func Build(records []EquationRecord) *Index {
	idx := &Index{
		entries: make(map[Key]CoefficientSet, len(records)),
		stats: BuildStats{
			Skipped: make(map[SkipReason]int, len(SkipReasons)),
		},
	}

	for i := range records {
		idx.add(&records[i])
	}
	return idx
}

func (idx *Index) add(rec *EquationRecord) {
	idx.stats.Seen++

	species := strings.TrimSpace(rec.Species)
	region := strings.TrimSpace(rec.Region)
	if species == "" || region == "" {
		idx.stats.Skipped[SkipMissingKey]++
		return
	}

	componentOK, familyOK := rec.eligible()
	if !componentOK {
		idx.stats.Skipped[SkipUnsupportedComponent]++
		return
	}
	if !familyOK {
		idx.stats.Skipped[SkipUnsupportedFamily]++
		return
	}

	intercept, slope, ok := ExtractCoefficients(rec.FormulaText)
	if !ok {
		idx.stats.Skipped[SkipUnparseableFormula]++
		return
	}

	key := Key{Species: species, Region: region}
	if _, exists := idx.entries[key]; exists {
		idx.stats.Overwritten++
	}
	idx.entries[key] = CoefficientSet{
		Intercept:   intercept,
		Slope:       slope,
		WoodDensity: ParseWoodDensity(rec.WoodDensity),
		Family:      FamilyLogLinearDBH,
	}
	idx.stats.Indexed++
}

// Lookup returns the coefficients for an exact species and region match.
// A miss is not an error.
func (idx *Index) Lookup(species, region string) (CoefficientSet, bool) {
	if idx == nil {
		return CoefficientSet{}, false
	}
	c, ok := idx.entries[Key{Species: species, Region: region}]
	return c, ok
}

// Len returns the number of distinct keys in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Keys returns all keys sorted by region, then species.
func (idx *Index) Keys() []Key {
	if idx == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(idx.entries), func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.Region, b.Region), cmp.Compare(a.Species, b.Species))
	})
}

// Regions returns the distinct regions present in the index, sorted.
func (idx *Index) Regions() []string {
	if idx == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for k := range idx.entries {
		seen[k.Region] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Species returns the sorted species indexed for region (exact match).
func (idx *Index) Species(region string) []string {
	if idx == nil {
		return nil
	}
	var species []string
	for k := range idx.entries {
		if k.Region == region {
			species = append(species, k.Species)
		}
	}
	slices.Sort(species)
	return species
}

// Stats returns a copy of the statistics gathered while building the index.
func (idx *Index) Stats() BuildStats {
	if idx == nil {
		return BuildStats{Skipped: map[SkipReason]int{}}
	}
	stats := idx.stats
	stats.Skipped = maps.Clone(idx.stats.Skipped)
	return stats
}
