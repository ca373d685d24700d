package regime

import (
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

func candleSeries(closes []float64, spread float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	base := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		hi, lo := open, c
		if c > open {
			hi = c
			lo = open
		}
		out[i] = model.Candle{
			Symbol:   "TEST",
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     open,
			High:     hi + spread,
			Low:      lo - spread,
			Close:    c,
			Volume:   1000,
		}
	}
	return out
}

func TestDetectTrendingBullish(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1000 + float64(i)*2
	}
	r := NewDetector().Detect(candleSeries(closes, 0.5))

	if r.State != model.RegimeTrending {
		t.Fatalf("steady climb should be TRENDING, got %s (vol %.4f, r2 %.2f)", r.State, r.Volatility, r.TrendStrength)
	}
	if r.Direction != model.TrendBullish {
		t.Fatalf("rising slope should be BULLISH, got %s", r.Direction)
	}
	if r.TrendSlope <= 0 {
		t.Fatalf("expected positive slope, got %v", r.TrendSlope)
	}
}

func TestDetectTrendingBearish(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1000 - float64(i)*2
	}
	r := NewDetector().Detect(candleSeries(closes, 0.5))

	if r.State != model.RegimeTrending {
		t.Fatalf("steady decline should be TRENDING, got %s", r.State)
	}
	if r.Direction != model.TrendBearish {
		t.Fatalf("falling slope should be BEARISH, got %s", r.Direction)
	}
}

func TestDetectRangingOnChop(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 1002
		} else {
			closes[i] = 998
		}
	}
	r := NewDetector().Detect(candleSeries(closes, 0.5))

	if r.State != model.RegimeRanging {
		t.Fatalf("oscillation should be RANGING, got %s (vol %.4f, r2 %.2f)", r.State, r.Volatility, r.TrendStrength)
	}
}

func TestDetectVolatileOnWideRanges(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 1060
		} else {
			closes[i] = 940
		}
	}
	r := NewDetector().Detect(candleSeries(closes, 10))

	if r.State != model.RegimeVolatile {
		t.Fatalf("wide true ranges should be VOLATILE, got %s (vol %.4f)", r.State, r.Volatility)
	}
}

func TestDetectEmptyWindow(t *testing.T) {
	r := NewDetector().Detect(nil)
	if r.State != model.RegimeRanging {
		t.Fatalf("empty window should default to RANGING, got %s", r.State)
	}
	if r.Volatility != 0 || r.TrendStrength != 0 {
		t.Fatalf("empty window should carry zero readings, got vol %v r2 %v", r.Volatility, r.TrendStrength)
	}
}

func TestInvalidThresholdIgnored(t *testing.T) {
	d := NewDetector()
	d.SetVolatilityThreshold(-1)
	d.SetVolatilityThreshold(2)
	d.SetTrendStrength(0)
	d.SetTrendStrength(1)

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1000 + float64(i)*2
	}
	if r := d.Detect(candleSeries(closes, 0.5)); r.State != model.RegimeTrending {
		t.Fatalf("defaults should survive invalid updates, got %s", r.State)
	}
}

func TestRecommendedStrategiesPerState(t *testing.T) {
	for _, state := range []model.RegimeState{model.RegimeTrending, model.RegimeRanging, model.RegimeVolatile} {
		names := RecommendedStrategies(model.MarketRegime{State: state})
		if len(names) == 0 {
			t.Fatalf("%s: no recommendations", state)
		}
	}
}
