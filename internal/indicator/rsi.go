package indicator

// RSI computes the Relative Strength Index using Wilder's smoothing method.
//
// Signed price deltas are split into gains and losses; the seed averages are
// the SMA of the first period gains/losses, and subsequent averages use
// avg = (avg*(period-1) + new) / period. When avgLoss is zero the point is
// pinned to 100 (Wilder convention). Any non-finite intermediate invalidates
// that point: the result carries only values inside [0,100].
//
// The series is empty (nil) when len(closes) < period+1.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(closes)-period)
	appendPoint := func() {
		var rsi float64
		if avgLoss == 0 {
			rsi = 100.0
		} else {
			rs := avgGain / avgLoss
			rsi = 100.0 - 100.0/(1.0+rs)
		}
		if isFinite(rsi) && rsi >= 0 && rsi <= 100 {
			out = append(out, rsi)
		}
	}

	appendPoint()
	p := float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
		appendPoint()
	}
	return out
}
