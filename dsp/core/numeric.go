package core

import "math"

const defaultEpsilon = 1e-12

// TwoPi is one full cycle in radians.
const TwoPi = 2 * math.Pi

// WrapPhase normalizes a phase in radians to the interval [0, 2*pi).
// Any finite input is valid; out-of-range phases are folded, never rejected.
func WrapPhase(phase float64) float64 {
	p := math.Mod(phase, TwoPi)
	if p < 0 {
		p += TwoPi
	}
	return p
}

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// PhaseNearlyEqual reports whether two wrapped phases are equal within eps,
// treating values on either side of the 0 / 2*pi seam as adjacent.
func PhaseNearlyEqual(a, b, eps float64) bool {
	d := math.Abs(WrapPhase(a) - WrapPhase(b))
	if d > math.Pi {
		d = TwoPi - d
	}
	return d <= eps
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
