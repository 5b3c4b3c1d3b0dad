package scrollstack

import "math"

// Progress is the position of value inside [start, end], clamped to [0, 1].
// A degenerate range (start == end) is a step: 1 once value reached end, 0 before.
func Progress(value, start, end float64) float64 {
	if math.IsNaN(value) || math.IsNaN(start) || math.IsNaN(end) {
		return 0
	}
	if start == end {
		if value >= end {
			return 1
		}
		return 0
	}
	return clamp01((value - start) / (end - start))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ExpoOut is the exponential ease-out curve used by the smooth-scroll driver.
func ExpoOut(t float64) float64 {
	return math.Min(1, 1.001-math.Pow(2, -10*t))
}
