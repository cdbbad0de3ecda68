package allometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quercus() EquationRecord {
	return EquationRecord{
		Species:      "Quercus robur",
		Region:       "temperate",
		Component:    "AGB",
		EquationType: "LOG_LINEAR_DBH",
		FormulaText:  "ln(AGB) = -2.5 + 2.3*ln(DBH)",
		WoodDensity:  "0.65",
	}
}

func TestBuildAndLookup(t *testing.T) {
	t.Parallel()
	t.Attr("component", "allometry")

	idx := Build([]EquationRecord{quercus()})

	coeffs, ok := idx.Lookup("Quercus robur", "temperate")
	require.True(t, ok)
	assert.InDelta(t, -2.5, coeffs.Intercept, 1e-12)
	assert.InDelta(t, 2.3, coeffs.Slope, 1e-12)
	assert.InDelta(t, 0.65, coeffs.WoodDensity, 1e-12)
	assert.Equal(t, FamilyLogLinearDBH, coeffs.Family)
	assert.Equal(t, 1, idx.Len())
}

func TestLookupIsExactAndCaseSensitive(t *testing.T) {
	t.Parallel()

	idx := Build([]EquationRecord{quercus()})

	_, ok := idx.Lookup("quercus robur", "temperate")
	assert.False(t, ok)
	_, ok = idx.Lookup("Quercus robur", "Temperate")
	assert.False(t, ok)
	_, ok = idx.Lookup("Quercus robur ", "temperate")
	assert.False(t, ok)
}

func TestBuildTrimsKeys(t *testing.T) {
	t.Parallel()

	rec := quercus()
	rec.Species = "  Quercus robur\t"
	rec.Region = " temperate "

	_, ok := Build([]EquationRecord{rec}).Lookup("Quercus robur", "temperate")
	assert.True(t, ok)
}

func TestBuildEligibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(*EquationRecord)
		wantFound  bool
		wantReason SkipReason
	}{
		{"lowercase tags accepted", func(r *EquationRecord) {
			r.Component = " agb "
			r.EquationType = "log_linear_dbh"
		}, true, ""},
		{"mixed case tags accepted", func(r *EquationRecord) { r.EquationType = "Log_Linear_Dbh" }, true, ""},
		{"empty species", func(r *EquationRecord) { r.Species = "   " }, false, SkipMissingKey},
		{"empty region", func(r *EquationRecord) { r.Region = "" }, false, SkipMissingKey},
		{"below-ground component", func(r *EquationRecord) { r.Component = "BGB" }, false, SkipUnsupportedComponent},
		{"height family", func(r *EquationRecord) { r.EquationType = "LOG_LINEAR_DBH_H" }, false, SkipUnsupportedFamily},
		{"single coefficient", func(r *EquationRecord) { r.FormulaText = "AGB = 0.5 * DBH" }, false, SkipUnparseableFormula},
		{"no coefficients", func(r *EquationRecord) { r.FormulaText = "" }, false, SkipUnparseableFormula},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := quercus()
			tt.mutate(&rec)

			idx := Build([]EquationRecord{rec})
			_, found := idx.Lookup("Quercus robur", "temperate")
			assert.Equal(t, tt.wantFound, found)

			stats := idx.Stats()
			assert.Equal(t, 1, stats.Seen)
			if tt.wantReason != "" {
				assert.Equal(t, 1, stats.Skipped[tt.wantReason])
				assert.Equal(t, 0, stats.Indexed)
			} else {
				assert.Equal(t, 1, stats.Indexed)
				assert.Zero(t, stats.TotalSkipped())
			}
		})
	}
}

func TestBuildLastDuplicateWins(t *testing.T) {
	t.Parallel()

	first := quercus()
	second := quercus()
	second.FormulaText = "ln(AGB) = -1.0 + 2.0*ln(DBH)"
	second.WoodDensity = ""

	idx := Build([]EquationRecord{first, second})

	coeffs, ok := idx.Lookup("Quercus robur", "temperate")
	require.True(t, ok)
	assert.InDelta(t, -1.0, coeffs.Intercept, 1e-12)
	assert.InDelta(t, 2.0, coeffs.Slope, 1e-12)
	assert.InDelta(t, DefaultWoodDensity, coeffs.WoodDensity, 1e-12)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Stats().Overwritten)
	assert.Equal(t, 2, idx.Stats().Indexed)
}

func TestIneligibleDuplicateDoesNotOverwrite(t *testing.T) {
	t.Parallel()

	broken := quercus()
	broken.FormulaText = "n/a"

	coeffs, ok := Build([]EquationRecord{quercus(), broken}).Lookup("Quercus robur", "temperate")
	require.True(t, ok)
	assert.InDelta(t, -2.5, coeffs.Intercept, 1e-12)
}

func TestParseWoodDensity(t *testing.T) {
	t.Parallel()

	tests := map[string]float64{
		"":      DefaultWoodDensity,
		"   ":   DefaultWoodDensity,
		"abc":   DefaultWoodDensity,
		"0":     DefaultWoodDensity,
		"-0.3":  DefaultWoodDensity,
		"NaN":   DefaultWoodDensity,
		"+Inf":  DefaultWoodDensity,
		"0.72":  0.72,
		" 0.58": 0.58,
		"1":     1,
	}
	for raw, want := range tests {
		assert.InDelta(t, want, ParseWoodDensity(raw), 1e-12, "raw %q", raw)
	}
}

func TestIndexListings(t *testing.T) {
	t.Parallel()

	records := []EquationRecord{
		quercus(),
		{Species: "Fagus sylvatica", Region: "temperate", Component: "AGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "-2.0 2.4"},
		{Species: "Picea abies", Region: "boreal", Component: "AGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "-2.2 2.2"},
		{Species: "Ceiba pentandra", Region: "tropical", Component: "BGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "-1 2"},
	}
	idx := Build(records)

	assert.Equal(t, []Key{
		{Species: "Picea abies", Region: "boreal"},
		{Species: "Fagus sylvatica", Region: "temperate"},
		{Species: "Quercus robur", Region: "temperate"},
	}, idx.Keys())
	assert.Equal(t, []string{"boreal", "temperate"}, idx.Regions())
	assert.Equal(t, []string{"Fagus sylvatica", "Quercus robur"}, idx.Species("temperate"))
	assert.Empty(t, idx.Species("tropical"))
}

func TestStatsReturnsCopy(t *testing.T) {
	t.Parallel()

	idx := Build([]EquationRecord{{Species: "x"}})
	stats := idx.Stats()
	stats.Skipped[SkipMissingKey] = 99

	assert.Equal(t, 1, idx.Stats().Skipped[SkipMissingKey])
}

func TestNilIndexIsEmpty(t *testing.T) {
	t.Parallel()

	var idx *Index
	_, ok := idx.Lookup("a", "b")
	assert.False(t, ok)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Keys())
}
