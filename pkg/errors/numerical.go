package errors

import (
	"math"
)

// MissingSentinel is the value that encodes a missing measurement in the
// event files and in the matrices handed to the external learner.
const MissingSentinel = -999.0

// IsMissing reports whether v is a missing value. NaN and ±Inf both count:
// infinities only ever come from undefined arithmetic on event kinematics.
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// MissingIfNonFinite maps ±Inf to NaN and leaves every other value unchanged.
func MissingIfNonFinite(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// FromSentinel converts the file-level sentinel into NaN.
func FromSentinel(v, sentinel float64) float64 {
	if v == sentinel {
		return math.NaN()
	}
	return v
}

// ToSentinel replaces a missing value with sentinel.
func ToSentinel(v, sentinel float64) float64 {
	if IsMissing(v) {
		return sentinel
	}
	return v
}

// CountMissing returns the number of missing values in values.
func CountMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if IsMissing(v) {
			n++
		}
	}
	return n
}

// SafeSqrt returns sqrt(x), or NaN when x is negative or missing.
// Radicands of invariant and transverse masses can go negative for
// unphysical momentum combinations.
func SafeSqrt(x float64) float64 {
	if IsMissing(x) || x < 0 {
		return math.NaN()
	}
	return math.Sqrt(x)
}

// SafeDivide returns numerator/denominator, or NaN when the denominator is
// zero or the result is not finite.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return math.NaN()
	}
	return MissingIfNonFinite(numerator / denominator)
}

// ZeroIfMissing returns 0 for a missing value, v otherwise.
func ZeroIfMissing(v float64) float64 {
	if IsMissing(v) {
		return 0
	}
	return v
}
