package indicator

import (
	"math"
	"testing"

	"signal-enginev1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func hlcCandle(high, low, close float64) model.Candle {
	return model.Candle{Symbol: "TEST", Open: close, High: high, Low: low, Close: close, Volume: 100}
}

// ────────────────────────────────────────────────────────────
// SMA correctness
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA(3): (100+102+104)/3=102, (102+104+103)/3=103, (104+103+105)/3=104
	out := SMA([]float64{100, 102, 104, 103, 105}, 3)
	want := []float64{102, 103, 104}
	if len(out) != len(want) {
		t.Fatalf("SMA(3) len: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		assertClose(t, "SMA(3)", out[i], want[i], 0.0001)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	if out := SMA([]float64{1, 2}, 3); out != nil {
		t.Errorf("SMA with short input should be nil, got %v", out)
	}
	if out := SMA(nil, 3); out != nil {
		t.Errorf("SMA of nil should be nil, got %v", out)
	}
}

// ────────────────────────────────────────────────────────────
// EMA correctness
// ────────────────────────────────────────────────────────────

func TestEMA_ReferenceSeries(t *testing.T) {
	// Prices 1..10 with period 3: multiplier = 2/(3+1) = 0.5
	// Seed = (1+2+3)/3 = 2.0, then each value is (price - prev)*0.5 + prev:
	// 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0
	out := EMA([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3)
	want := []float64{2, 3, 4, 5, 6, 7, 8, 9}
	if len(out) != len(want) {
		t.Fatalf("EMA(3) len: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		assertClose(t, "EMA(3)", out[i], want[i], 0.0001)
	}
}

func TestEMA_SeedIsSMA(t *testing.T) {
	// Prices: 44, 44.25, 44.50, 43.75, 44.50 → seed = 44.20
	out := EMA([]float64{44, 44.25, 44.50, 43.75, 44.50}, 5)
	if len(out) != 1 {
		t.Fatalf("expected single seed value, got %d values", len(out))
	}
	assertClose(t, "EMA(5) seed", out[0], 44.20, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI correctness (Wilder's method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	//
	// Deltas: +0.34, -0.25, -0.48, +0.72, +0.50, +0.27, +0.32, +0.42
	// Seed (first 5): avgGain=(0.34+0.72+0.50)/5=0.312, avgLoss=(0.25+0.48)/5=0.146
	//   RS=2.13699 → RSI=68.112
	// Next: avgGain=(0.312*4+0.27)/5=0.3036, avgLoss=0.584/5=0.1168 → RSI=72.219
	// Next: avgGain=0.30688, avgLoss=0.09344 → RSI=76.658
	// Next: avgGain=0.329504, avgLoss=0.074752 → RSI=81.509
	closes := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}
	out := RSI(closes, 5)
	want := []float64{68.112, 72.219, 76.658, 81.509}
	if len(out) != len(want) {
		t.Fatalf("RSI(5) len: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		assertClose(t, "RSI(5)", out[i], want[i], 0.2)
	}
}

func TestRSI_AllUp_Is100(t *testing.T) {
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 5)
	if len(out) == 0 {
		t.Fatal("expected RSI values")
	}
	// avgLoss stays 0 on an all-increasing series → pinned at 100
	assertClose(t, "RSI all up", out[len(out)-1], 100.0, 0.001)
}

func TestRSI_AllDown_NearZero(t *testing.T) {
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	out := RSI(closes, 5)
	if len(out) == 0 {
		t.Fatal("expected RSI values")
	}
	assertClose(t, "RSI all down", out[len(out)-1], 0.0, 0.001)
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{10, 12, 9, 14, 8, 15, 7, 16, 11, 13, 12, 14}
	for _, v := range RSI(closes, 5) {
		if v < 0 || v > 100 {
			t.Errorf("RSI out of [0,100]: %.4f", v)
		}
	}
}

// ────────────────────────────────────────────────────────────
// ATR correctness (Wilder smoothing)
// ────────────────────────────────────────────────────────────

func TestATR_Correctness_Period2(t *testing.T) {
	// Candle TRs (from candle 2 on):
	//   c1: max(13-11, |13-11|, |11-11|) = 2
	//   c2: max(14-12, |14-12|, |12-12|) = 2
	//   c3: max(16-12, |16-13|, |12-13|) = 4
	// Seed ATR(2) = (2+2)/2 = 2; next = (2*1 + 4)/2 = 3
	candles := []model.Candle{
		hlcCandle(12, 10, 11),
		hlcCandle(13, 11, 12),
		hlcCandle(14, 12, 13),
		hlcCandle(16, 12, 15),
	}
	out := ATR(candles, 2)
	want := []float64{2, 3}
	if len(out) != len(want) {
		t.Fatalf("ATR(2) len: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		assertClose(t, "ATR(2)", out[i], want[i], 0.0001)
	}
}

func TestATR_InsufficientData(t *testing.T) {
	candles := []model.Candle{hlcCandle(12, 10, 11), hlcCandle(13, 11, 12)}
	if out := ATR(candles, 5); out != nil {
		t.Errorf("ATR with short input should be nil, got %v", out)
	}
}

// ────────────────────────────────────────────────────────────
// MACD alignment and sign
// ────────────────────────────────────────────────────────────

func TestMACD_UptrendPositive(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	res := MACD(closes, 12, 26, 9)
	if len(res.MACD) == 0 || len(res.Signal) == 0 || len(res.Histogram) == 0 {
		t.Fatal("expected non-empty MACD result")
	}
	// In a steady uptrend the fast EMA sits above the slow EMA.
	if last := res.MACD[len(res.MACD)-1]; last <= 0 {
		t.Errorf("MACD in uptrend should be positive, got %.4f", last)
	}
	// Histogram must equal MACD - signal at the aligned tail.
	lastMACD := res.MACD[len(res.MACD)-1]
	lastSignal := res.Signal[len(res.Signal)-1]
	lastHist := res.Histogram[len(res.Histogram)-1]
	assertClose(t, "MACD histogram tail", lastHist, lastMACD-lastSignal, 0.0001)
}

func TestMACD_InsufficientData(t *testing.T) {
	res := MACD([]float64{1, 2, 3}, 12, 26, 9)
	if len(res.MACD) != 0 {
		t.Errorf("expected empty MACD for short input, got %d values", len(res.MACD))
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands
// ────────────────────────────────────────────────────────────

func TestBollingerBands_Correctness(t *testing.T) {
	// Window 1..5: mean = 3, population stddev = sqrt(2) ≈ 1.41421
	res := BollingerBands([]float64{1, 2, 3, 4, 5}, 5, 2)
	if len(res.Middle) != 1 {
		t.Fatalf("expected 1 band value, got %d", len(res.Middle))
	}
	assertClose(t, "BB middle", res.Middle[0], 3.0, 0.0001)
	assertClose(t, "BB upper", res.Upper[0], 3.0+2*math.Sqrt2, 0.0001)
	assertClose(t, "BB lower", res.Lower[0], 3.0-2*math.Sqrt2, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Stochastic %K/%D and Williams %R
// ────────────────────────────────────────────────────────────

func TestStochastic_CloseAtHigh_Is100(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14}
	lows := []float64{8, 9, 10, 11, 12}
	closes := []float64{9, 10, 11, 12, 14} // last close == highest high
	res := Stochastic(highs, lows, closes, 5, 3)
	if len(res.K) != 1 {
		t.Fatalf("expected 1 %%K value, got %d", len(res.K))
	}
	assertClose(t, "%K at high", res.K[0], 100.0, 0.0001)
}

func TestStochastic_FlatWindow_Neutral(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10}
	res := Stochastic(flat, flat, flat, 5, 3)
	assertClose(t, "%K flat", res.K[0], 50.0, 0.0001)
}

func TestWilliamsR_Range(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14}
	lows := []float64{8, 9, 10, 11, 12}

	// Close at the highest high → %R = 0
	out := WilliamsR(highs, lows, []float64{9, 10, 11, 12, 14}, 5)
	assertClose(t, "Williams %R at high", out[len(out)-1], 0.0, 0.0001)

	// Close at the lowest low → %R = -100
	out = WilliamsR(highs, lows, []float64{9, 10, 11, 12, 8}, 5)
	assertClose(t, "Williams %R at low", out[len(out)-1], -100.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Parabolic SAR
// ────────────────────────────────────────────────────────────

func sarCandles(closes []float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = hlcCandle(c+0.5, c-0.5, c)
	}
	return out
}

func TestParabolicSAR_UptrendBelowPrice(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	out := ParabolicSAR(sarCandles(closes), 0.02, 0.2)
	if len(out) != len(closes) {
		t.Fatalf("SAR len: got %d, want %d", len(out), len(closes))
	}
	if last := out[len(out)-1]; last >= closes[len(closes)-1] {
		t.Errorf("SAR in uptrend should sit below price: SAR=%.2f close=%.2f", last, closes[len(closes)-1])
	}
}

func TestParabolicSAR_DowntrendAbovePrice(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)*2
	}
	out := ParabolicSAR(sarCandles(closes), 0.02, 0.2)
	if last := out[len(out)-1]; last <= closes[len(closes)-1] {
		t.Errorf("SAR in downtrend should sit above price: SAR=%.2f close=%.2f", last, closes[len(closes)-1])
	}
}

func TestParabolicSAR_ReversalFlips(t *testing.T) {
	// Steady rise then a hard collapse; the SAR must flip above price.
	closes := []float64{100, 102, 104, 106, 108, 110, 112, 90, 85, 80, 75, 70}
	out := ParabolicSAR(sarCandles(closes), 0.02, 0.2)
	if last := out[len(out)-1]; last <= closes[len(closes)-1] {
		t.Errorf("SAR after reversal should sit above price: SAR=%.2f close=%.2f", last, closes[len(closes)-1])
	}
}

// ────────────────────────────────────────────────────────────
// VWAP
// ────────────────────────────────────────────────────────────

func TestVWAP_ConstantPrice(t *testing.T) {
	candles := []model.Candle{
		hlcCandle(100, 100, 100),
		hlcCandle(100, 100, 100),
		hlcCandle(100, 100, 100),
	}
	for _, v := range VWAP(candles) {
		assertClose(t, "VWAP constant", v, 100.0, 0.0001)
	}
}

func TestVWAP_WeightsByVolume(t *testing.T) {
	// Typical prices 100 and 200 with volumes 1 and 3 → (100 + 600)/4 = 175
	c1 := hlcCandle(100, 100, 100)
	c1.Volume = 1
	c2 := hlcCandle(200, 200, 200)
	c2.Volume = 3
	out := VWAP([]model.Candle{c1, c2})
	assertClose(t, "VWAP weighted", out[1], 175.0, 0.0001)
}

func TestVWAP_ZeroVolumeFallsBackToClose(t *testing.T) {
	c := hlcCandle(100, 90, 95)
	c.Volume = 0
	out := VWAP([]model.Candle{c})
	assertClose(t, "VWAP zero volume", out[0], 95.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Linear regression
// ────────────────────────────────────────────────────────────

func TestLinearRegression_PerfectLine(t *testing.T) {
	reg := LinearRegression([]float64{2, 4, 6, 8})
	assertClose(t, "slope", reg.Slope, 2.0, 0.0001)
	assertClose(t, "intercept", reg.Intercept, 2.0, 0.0001)
	assertClose(t, "R²", reg.Strength, 1.0, 0.0001)
}

func TestLinearRegression_FlatSeries(t *testing.T) {
	reg := LinearRegression([]float64{5, 5, 5, 5})
	assertClose(t, "flat slope", reg.Slope, 0.0, 0.0001)
	assertClose(t, "flat strength", reg.Strength, 0.0, 0.0001)
}

func TestLinearRegression_NoisySeriesWeakerFit(t *testing.T) {
	reg := LinearRegression([]float64{1, 9, 2, 8, 3, 7})
	if reg.Strength >= 0.5 {
		t.Errorf("noisy series should have weak R², got %.4f", reg.Strength)
	}
}

// ────────────────────────────────────────────────────────────
// Ichimoku
// ────────────────────────────────────────────────────────────

func TestIchimoku_MidpointLines(t *testing.T) {
	highs := []float64{10, 12, 14, 16, 18, 20}
	lows := []float64{8, 10, 12, 14, 16, 18}
	closes := []float64{9, 11, 13, 15, 17, 19}

	res := Ichimoku(highs, lows, closes, 2, 3, 4, 2)

	// Tenkan(2) last value: (max(18,20)+min(16,18))/2 = (20+16)/2 = 18
	assertClose(t, "Tenkan last", res.Tenkan[len(res.Tenkan)-1], 18.0, 0.0001)
	// Kijun(3) last value: (max(16,18,20)+min(14,16,18))/2 = (20+14)/2 = 17
	assertClose(t, "Kijun last", res.Kijun[len(res.Kijun)-1], 17.0, 0.0001)
	// SenkouA last = (18+17)/2 = 17.5
	assertClose(t, "SenkouA last", res.SenkouA[len(res.SenkouA)-1], 17.5, 0.0001)
	// SenkouB(4) last value: (max last 4 highs + min last 4 lows)/2 = (20+12)/2 = 16
	assertClose(t, "SenkouB last", res.SenkouB[len(res.SenkouB)-1], 16.0, 0.0001)
	// Chikou is the close series shifted back by 2.
	if len(res.Chikou) != len(closes)-2 {
		t.Fatalf("Chikou len: got %d, want %d", len(res.Chikou), len(closes)-2)
	}
	assertClose(t, "Chikou first", res.Chikou[0], 13.0, 0.0001)
}

func TestIchimoku_InsufficientData(t *testing.T) {
	res := Ichimoku([]float64{1}, []float64{1}, []float64{1}, 9, 26, 52, 26)
	if len(res.Tenkan) != 0 || len(res.Kijun) != 0 || len(res.SenkouB) != 0 {
		t.Error("expected empty Ichimoku lines for short input")
	}
}
