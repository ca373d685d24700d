// Package indicator provides technical indicator calculations over candle data.
//
// All functions are pure and stateless: they take float sequences (or candle
// slices) and return computed series. A nil/empty result means the input was
// too short for the requested period; callers are expected to degrade
// gracefully rather than treat that as an error.
package indicator

import "math"

// isFinite reports whether v is a usable float (not NaN, not ±Inf).
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// windowMax returns the maximum of values[lo:hi].
func windowMax(values []float64, lo, hi int) float64 {
	max := values[lo]
	for i := lo + 1; i < hi; i++ {
		if values[i] > max {
			max = values[i]
		}
	}
	return max
}

// windowMin returns the minimum of values[lo:hi].
func windowMin(values []float64, lo, hi int) float64 {
	min := values[lo]
	for i := lo + 1; i < hi; i++ {
		if values[i] < min {
			min = values[i]
		}
	}
	return min
}

// stddev returns the population standard deviation of values[lo:hi]
// around the given mean.
func stddev(values []float64, lo, hi int, mean float64) float64 {
	n := hi - lo
	if n <= 0 {
		return 0
	}
	var sum float64
	for i := lo; i < hi; i++ {
		d := values[i] - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}
