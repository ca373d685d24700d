package indicator

// IchimokuResult holds the five Ichimoku lines. Tenkan, Kijun, and SenkouB
// end at the most recent candle; SenkouA is aligned to the later of the
// Tenkan/Kijun start indices; Chikou is the close series shifted back by the
// displacement (its last value is the close `displacement` candles ago from
// the perspective of the plotted line).
type IchimokuResult struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

// midpoints computes (highestHigh + lowestLow)/2 over a trailing window.
func midpoints(highs, lows []float64, period int) []float64 {
	if period <= 0 || len(highs) < period || len(lows) != len(highs) {
		return nil
	}
	out := make([]float64, 0, len(highs)-period+1)
	for i := period - 1; i < len(highs); i++ {
		hh := windowMax(highs, i-period+1, i+1)
		ll := windowMin(lows, i-period+1, i+1)
		out = append(out, (hh+ll)/2)
	}
	return out
}

// Ichimoku computes the Ichimoku lines:
// Tenkan = midpoint over tenkanPeriod, Kijun = midpoint over kijunPeriod,
// SenkouA = (Tenkan+Kijun)/2 aligned to the later start of the two,
// SenkouB = midpoint over senkouBPeriod, Chikou = closes shifted back by
// displacement. Series for which the input is too short come back empty.
func Ichimoku(highs, lows, closes []float64, tenkanPeriod, kijunPeriod, senkouBPeriod, displacement int) IchimokuResult {
	res := IchimokuResult{
		Tenkan:  midpoints(highs, lows, tenkanPeriod),
		Kijun:   midpoints(highs, lows, kijunPeriod),
		SenkouB: midpoints(highs, lows, senkouBPeriod),
	}

	if len(res.Tenkan) > 0 && len(res.Kijun) > 0 {
		n := len(res.Tenkan)
		if len(res.Kijun) < n {
			n = len(res.Kijun)
		}
		// Last n values of each line overlap; average the overlap.
		senkouA := make([]float64, n)
		tOff := len(res.Tenkan) - n
		kOff := len(res.Kijun) - n
		for i := 0; i < n; i++ {
			senkouA[i] = (res.Tenkan[tOff+i] + res.Kijun[kOff+i]) / 2
		}
		res.SenkouA = senkouA
	}

	if displacement > 0 && len(closes) > displacement {
		// Chikou plotted at position i is the close displacement candles later.
		res.Chikou = closes[displacement:]
	}
	return res
}
