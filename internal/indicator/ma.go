package indicator

// SMA computes the Simple Moving Average over a rolling window.
// Result[i] is the mean of values[i : i+period]; the series is empty (nil)
// when len(values) < period.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA computes the Exponential Moving Average.
// The first value is seeded with the SMA of the first period values; each
// subsequent value follows ema = (price - prev)*k + prev with k = 2/(period+1).
// The series is empty (nil) when len(values) < period.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out = append(out, prev)

	for _, v := range values[period:] {
		prev = (v-prev)*k + prev
		out = append(out, prev)
	}
	return out
}
