package quote

import "math"

// HedgeFraction returns the tiered hedge fraction alpha_i of stake for a
// leg with the given venue probability p (0,1). The tiers are a piecewise
// function, not a formula, by design: the boundaries are policy, not math.
func HedgeFraction(p, alphaMax float64) float64 {
	switch {
	case p < 0.50:
		return 0
	case p < 0.55:
		return 0.15
	case p < 0.65:
		return 0.25
	default:
		return math.Min(0.40, alphaMax)
	}
}
