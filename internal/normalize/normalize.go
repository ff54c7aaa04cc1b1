// Package normalize provides the pure feature-normalization functions used by
// every scorer in the pipeline. All functions are total: they never fail and
// never return NaN or Inf.
package normalize

import "math"

// Clamp01 bounds v to [0.0, 1.0]. NaN maps to the neutral default 0.5.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MinMax linearly scales value from [minExpected, maxExpected] into [0, 1],
// clamping below the minimum to 0 and above the maximum to 1. A degenerate
// range (minExpected == maxExpected) yields the neutral 0.5.
func MinMax(value, minExpected, maxExpected float64) float64 {
	if minExpected == maxExpected {
		return 0.5
	}
	if maxExpected < minExpected {
		minExpected, maxExpected = maxExpected, minExpected
	}
	scaled := (value - minExpected) / (maxExpected - minExpected)
	return Clamp01(scaled)
}

// OptimalPoint scores value by its distance from an optimum: 1.0 at optimal,
// decaying linearly to 0.0 where |value-optimal| reaches maxDeviation, and 0
// beyond. A non-positive maxDeviation degenerates to exact matching.
func OptimalPoint(value, optimal, maxDeviation float64) float64 {
	if maxDeviation <= 0 {
		if value == optimal {
			return 1.0
		}
		return 0.0
	}
	dev := math.Abs(value - optimal)
	return Clamp01(1.0 - dev/maxDeviation)
}
