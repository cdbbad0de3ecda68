package allometry

import "math"

// Evaluate computes above-ground biomass in kilograms for a stem of diameterCM.
// A missing model (found == false) or an unsupported family yields 0.
// Diameters below MinDiameterCM, including NaN, are clamped to it.
func Evaluate(diameterCM float64, coeffs CoefficientSet, found bool) float64 {
	if !found {
		return 0
	}

	switch coeffs.Family {
	case FamilyLogLinearDBH:
		d := diameterCM
		if math.IsNaN(d) || d < MinDiameterCM {
			d = MinDiameterCM
		}
		return math.Exp(coeffs.Intercept + coeffs.Slope*math.Log(d))
	default:
		return 0
	}
}
