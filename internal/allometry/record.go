// Package allometry resolves species and region specific allometric equations and
// evaluates above-ground biomass (AGB) from stem diameter.
//
// Equation records are read from the canonical equation table (or the datastore),
// filtered to the supported equation family and compiled into an immutable Index:
//
//	records, err := allometry.LoadRecordsFile(ctx, "globallometree_equations.csv")
//	if err != nil {
//	    return err
//	}
//	idx := allometry.Build(records)
//	coeffs, found := idx.Lookup("Quercus robur", "temperate")
//	agb := allometry.Evaluate(30.0, coeffs, found) // ≈ 204.95 kg
//
// Long-running callers hold an Engine, which swaps freshly built indices atomically.
package allometry

import (
	"math"
	"strconv"
	"strings"
)

// ComponentAGB is the only biomass component the index accepts.
const ComponentAGB = "AGB"

// DefaultWoodDensity is used when a record's wood density is absent or unusable.
const DefaultWoodDensity = 0.5

// MinDiameterCM is the lower clamp applied to diameters before taking the logarithm.
const MinDiameterCM = 0.01

// EquationFamily tags the functional form of an allometric equation.
type EquationFamily string

// FamilyLogLinearDBH is ln(AGB) = a + b·ln(DBH), the only supported family.
const FamilyLogLinearDBH EquationFamily = "LOG_LINEAR_DBH"

// EquationRecord is one row of the canonical equation table. Values are kept raw;
// Build normalizes and validates them.
type EquationRecord struct {
	Species      string
	Region       string
	Component    string
	EquationType string
	FormulaText  string
	WoodDensity  string
}

// normalizeTag trims and uppercases component and equation type tags
func normalizeTag(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// eligible reports whether the record is in the supported component and family.
func (r *EquationRecord) eligible() (componentOK, familyOK bool) {
	return normalizeTag(r.Component) == ComponentAGB,
		EquationFamily(normalizeTag(r.EquationType)) == FamilyLogLinearDBH
}

// ParseWoodDensity resolves a raw wood density value. Empty, non-numeric,
// non-finite and non-positive values fall back to DefaultWoodDensity.
func ParseWoodDensity(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultWoodDensity
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultWoodDensity
	}
	return v
}
