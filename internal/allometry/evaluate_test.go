package allometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var oak = CoefficientSet{Intercept: -2.5, Slope: 2.3, WoodDensity: 0.65, Family: FamilyLogLinearDBH}

func TestEvaluateMatchesFormula(t *testing.T) {
	t.Parallel()
	t.Attr("component", "allometry")

	for _, d := range []float64{0.5, 1, 12.7, 30, 85, 250} {
		want := math.Exp(oak.Intercept + oak.Slope*math.Log(d))
		got := Evaluate(d, oak, true)
		assert.InDelta(t, want, got, want*1e-12, "dbh %v", d)
		assert.Positive(t, got)
	}
}

func TestEvaluateQuercusRobur(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 204.9475, Evaluate(30, oak, true), 1e-3)
}

func TestEvaluateClampsSmallDiameters(t *testing.T) {
	t.Parallel()

	floor := Evaluate(MinDiameterCM, oak, true)
	for _, d := range []float64{0, -5, 0.001, math.Inf(-1), math.NaN()} {
		got := Evaluate(d, oak, true)
		assert.InDelta(t, floor, got, floor*1e-12, "dbh %v", d)
		assert.False(t, math.IsNaN(got))
	}
}

func TestEvaluateMissingModel(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Evaluate(30, oak, false))
	assert.Zero(t, Evaluate(30, CoefficientSet{}, false))
}

func TestEvaluateUnsupportedFamily(t *testing.T) {
	t.Parallel()

	other := oak
	other.Family = "POWER_DBH_H"
	assert.Zero(t, Evaluate(30, other, true))
}
