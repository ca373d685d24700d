package indicator

// BollingerResult holds the three Bollinger band series, all aligned:
// index i covers the window values[i : i+period].
type BollingerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// BollingerBands computes middle = SMA(period) and upper/lower bands at
// middle ± k standard deviations (population stddev over the same window).
// All series are empty when len(values) < period.
func BollingerBands(values []float64, period int, k float64) BollingerResult {
	middle := SMA(values, period)
	if len(middle) == 0 {
		return BollingerResult{}
	}

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for i, mid := range middle {
		sd := stddev(values, i, i+period, mid)
		upper[i] = mid + k*sd
		lower[i] = mid - k*sd
	}
	return BollingerResult{Middle: middle, Upper: upper, Lower: lower}
}
