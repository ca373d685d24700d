package indicator

import (
	"math"

	"signal-enginev1/internal/model"
)

// TrueRanges computes the true range series for a candle slice:
// TR = max(high-low, |high-prevClose|, |low-prevClose|).
// The first candle has no previous close, so the series has len(candles)-1
// entries starting at the second candle.
func TrueRanges(candles []model.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prevClose := candles[i-1].Close
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - prevClose)
		lc := math.Abs(candles[i].Low - prevClose)
		out[i-1] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the Average True Range using Wilder smoothing: the seed is the
// SMA of the first period true ranges, then atr = (prev*(period-1) + tr)/period.
// The series is empty (nil) when len(candles) < period+1.
func ATR(candles []model.Candle, period int) []float64 {
	trs := TrueRanges(candles)
	if period <= 0 || len(trs) < period {
		return nil
	}

	var seed float64
	for _, tr := range trs[:period] {
		seed += tr
	}
	prev := seed / float64(period)

	out := make([]float64, 0, len(trs)-period+1)
	out = append(out, prev)
	p := float64(period)
	for _, tr := range trs[period:] {
		prev = (prev*(p-1) + tr) / p
		out = append(out, prev)
	}
	return out
}
