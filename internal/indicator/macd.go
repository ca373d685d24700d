package indicator

// MACDResult holds the MACD line, its signal line, and the histogram.
// MACD is aligned so MACD[len-1], Signal[len-1], and Histogram[len-1] all
// correspond to the most recent input value.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the Moving Average Convergence Divergence:
// MACD line = EMA(fast) - EMA(slow), aligned by the offset slow-fast;
// signal line = EMA(MACD, signalPeriod); histogram = MACD - signal.
// All series are empty when the input is too short for the slow EMA plus
// the signal EMA seed.
func MACD(closes []float64, fast, slow, signalPeriod int) MACDResult {
	if fast <= 0 || slow <= fast || signalPeriod <= 0 {
		return MACDResult{}
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	if len(emaSlow) == 0 {
		return MACDResult{}
	}

	// emaFast starts fast-1 values into the input, emaSlow starts slow-1 in;
	// skipping the first slow-fast fast values lines the two series up.
	offset := slow - fast
	macd := make([]float64, len(emaSlow))
	for i := range emaSlow {
		macd[i] = emaFast[i+offset] - emaSlow[i]
	}

	signal := EMA(macd, signalPeriod)
	if len(signal) == 0 {
		return MACDResult{MACD: macd}
	}

	hist := make([]float64, len(signal))
	macdOffset := len(macd) - len(signal)
	for i := range signal {
		hist[i] = macd[i+macdOffset] - signal[i]
	}
	return MACDResult{MACD: macd, Signal: signal, Histogram: hist}
}
