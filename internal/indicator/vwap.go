package indicator

import "signal-enginev1/internal/model"

// VWAP computes the cumulative Volume-Weighted Average Price over the series:
// vwap[i] = sum(typicalPrice*volume) / sum(volume) for candles [0..i], where
// typicalPrice = (high+low+close)/3. Buckets with zero cumulative volume fall
// back to the candle's close.
func VWAP(candles []model.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}

	out := make([]float64, len(candles))
	var cumPV, cumVol float64
	for i, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		cumPV += typical * c.Volume
		cumVol += c.Volume
		if cumVol == 0 {
			out[i] = c.Close
			continue
		}
		out[i] = cumPV / cumVol
	}
	return out
}
