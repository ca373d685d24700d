package indicator

// StochasticResult holds the %K and %D series. %D is the SMA of %K, so it
// starts dPeriod-1 values later; both series end at the most recent input.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes the stochastic oscillator:
// %K = (close - lowestLow) / (highestHigh - lowestLow) * 100 over kPeriod,
// %D = SMA(%K, dPeriod). A flat window (zero range) yields a neutral 50.
// Series are empty when the input is shorter than kPeriod.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochasticResult {
	if kPeriod <= 0 || len(closes) < kPeriod || len(highs) != len(closes) || len(lows) != len(closes) {
		return StochasticResult{}
	}

	k := make([]float64, 0, len(closes)-kPeriod+1)
	for i := kPeriod - 1; i < len(closes); i++ {
		hh := windowMax(highs, i-kPeriod+1, i+1)
		ll := windowMin(lows, i-kPeriod+1, i+1)
		if hh == ll {
			k = append(k, 50.0)
			continue
		}
		k = append(k, (closes[i]-ll)/(hh-ll)*100.0)
	}
	return StochasticResult{K: k, D: SMA(k, dPeriod)}
}

// WilliamsR computes Williams %R:
// (highestHigh - close) / (highestHigh - lowestLow) * -100 over the window.
// Values lie in [-100, 0]; a flat window yields -50. The series is empty
// when the input is shorter than period.
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	out := make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		hh := windowMax(highs, i-period+1, i+1)
		ll := windowMin(lows, i-period+1, i+1)
		if hh == ll {
			out = append(out, -50.0)
			continue
		}
		out = append(out, (hh-closes[i])/(hh-ll)*-100.0)
	}
	return out
}
