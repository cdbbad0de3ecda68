package allometry

import (
	"regexp"
	"strconv"
)

// numericToken matches signed decimals (digits required after the point) before
// falling back to signed integers. "2." therefore yields "2".
var numericToken = regexp.MustCompile(`[-+]?\d*\.\d+|[-+]?\d+`)

// NumericTokens returns every numeric token in formula, left to right.
func NumericTokens(formula string) []string {
	return numericToken.FindAllString(formula, -1)
}

// ExtractCoefficients reads the intercept and slope of a log-linear formula as
// the first two numeric tokens in the text. Later tokens are ignored.
//
// This is a positional heuristic, not a formula grammar. A formula that mentions
// a number before its intercept (for example "log10(AGB) = ...") yields the
// wrong coefficients.
func ExtractCoefficients(formula string) (intercept, slope float64, ok bool) {
	tokens := numericToken.FindAllString(formula, 2)
	if len(tokens) < 2 {
		return 0, 0, false
	}

	intercept, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, 0, false
	}
	slope, err = strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return intercept, slope, true
}
