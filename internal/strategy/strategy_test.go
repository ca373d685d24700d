package strategy

import (
	"math"
	"strings"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

// ─────────────────────────────── helpers ───────────────────────────────

// series builds candles from closes: High/Low bracket the close by spread,
// Open is the previous close, Volume is constant.
func series(closes []float64, spread float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	base := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		out[i] = model.Candle{
			Symbol:   "TEST",
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     open,
			High:     math.Max(open, c) + spread,
			Low:      math.Min(open, c) - spread,
			Close:    c,
			Volume:   1000,
		}
	}
	return out
}

// ramp returns n closes starting at start and stepping by step.
func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// zigzag returns n closes oscillating around center by amp.
func zigzag(n int, center, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = center + amp
		} else {
			out[i] = center - amp
		}
	}
	return out
}

func assertBounds(t *testing.T, label string, sig model.StrategySignal) {
	t.Helper()
	if sig.Confidence < 0 || sig.Confidence > 1 {
		t.Fatalf("%s: confidence %v out of [0,1]", label, sig.Confidence)
	}
	if math.IsNaN(sig.Confidence) || math.IsInf(sig.Confidence, 0) {
		t.Fatalf("%s: confidence not finite: %v", label, sig.Confidence)
	}
	switch sig.Direction {
	case model.Buy, model.Sell, model.Hold:
	default:
		t.Fatalf("%s: unexpected direction %q", label, sig.Direction)
	}
	if sig.Reason == "" {
		t.Fatalf("%s: empty reason", label)
	}
}

// ─────────────────────────────── invariants ───────────────────────────────

func TestAllStrategiesConfidenceBounds(t *testing.T) {
	inputs := map[string][]model.Candle{
		"empty":     nil,
		"single":    series([]float64{100}, 0.5),
		"short":     series(ramp(5, 100, 0.5), 0.5),
		"uptrend":   series(ramp(120, 100, 0.5), 0.5),
		"downtrend": series(ramp(120, 200, -0.5), 0.5),
		"flat":      series(ramp(120, 100, 0), 0),
		"choppy":    series(zigzag(120, 100, 2), 0.5),
	}
	for _, s := range Defaults() {
		for name, candles := range inputs {
			sig := s.Signal(candles)
			assertBounds(t, s.Name()+"/"+name, sig)
			if sig.Strategy != s.Name() {
				t.Fatalf("%s: signal labeled %q", s.Name(), sig.Strategy)
			}
		}
	}
}

func TestAllStrategiesFallbackOnShortInput(t *testing.T) {
	candles := series(ramp(4, 100, 1), 0.5)
	for _, s := range Defaults() {
		if s.RequiredCandles() <= len(candles) {
			continue
		}
		sig := s.Signal(candles)
		if !strings.Contains(sig.Reason, "fallback") {
			t.Fatalf("%s: short input reason %q does not mark the degraded path", s.Name(), sig.Reason)
		}
		if sig.Confidence > fallbackMaxConfidence {
			t.Fatalf("%s: fallback confidence %v above cap %v", s.Name(), sig.Confidence, fallbackMaxConfidence)
		}
	}
}

func TestRequiredCandlesPositive(t *testing.T) {
	for _, s := range Defaults() {
		if s.RequiredCandles() <= 0 {
			t.Fatalf("%s: non-positive RequiredCandles %d", s.Name(), s.RequiredCandles())
		}
	}
}

func TestFactory(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Fatalf("New(%q) produced %q", name, s.Name())
		}
	}
	if _, err := New("nope"); err == nil {
		t.Fatal("expected error for unknown strategy name")
	}
	if len(Defaults()) != len(Names()) {
		t.Fatalf("Defaults/Names size mismatch: %d vs %d", len(Defaults()), len(Names()))
	}
}

// ─────────────────────────────── parameter updates ───────────────────────────────

func TestEMACrossoverInvalidParamsIgnored(t *testing.T) {
	s := NewEMACrossover()
	before := s.RequiredCandles()

	s.SetFastPeriod(0)    // out of range
	s.SetFastPeriod(50)   // would exceed slow period
	s.SetSlowPeriod(5)    // would drop below fast period
	s.SetSlowPeriod(1000) // out of range

	if got := s.RequiredCandles(); got != before {
		t.Fatalf("invalid updates changed RequiredCandles: %d -> %d", before, got)
	}
}

func TestRequiredCandlesGrowsWithPeriod(t *testing.T) {
	cases := []struct {
		name string
		make func() Strategy
		bump func(Strategy)
	}{
		{"ema_crossover slow", func() Strategy { return NewEMACrossover() },
			func(s Strategy) { s.(*EMACrossover).SetSlowPeriod(50) }},
		{"macd slow", func() Strategy { return NewMACDStrategy() },
			func(s Strategy) { s.(*MACDStrategy).SetSlowPeriod(60) }},
		{"macd signal", func() Strategy { return NewMACDStrategy() },
			func(s Strategy) { s.(*MACDStrategy).SetSignalPeriod(20) }},
		{"parabolic_sar lookback", func() Strategy { return NewParabolicSARStrategy() },
			func(s Strategy) { s.(*ParabolicSARStrategy).SetLookback(100) }},
		{"ichimoku senkou_b", func() Strategy { return NewIchimokuStrategy() },
			func(s Strategy) { s.(*IchimokuStrategy).SetSenkouBPeriod(80) }},
		{"ichimoku displacement", func() Strategy { return NewIchimokuStrategy() },
			func(s Strategy) { s.(*IchimokuStrategy).SetDisplacement(40) }},
		{"swing trend", func() Strategy { return NewSwingComposite() },
			func(s Strategy) { s.(*SwingComposite).SetTrendPeriod(60) }},
		{"rsi period", func() Strategy { return NewRSIStrategy() },
			func(s Strategy) { s.(*RSIStrategy).SetPeriod(30) }},
		{"stochastic periods", func() Strategy { return NewStochasticStrategy() },
			func(s Strategy) { s.(*StochasticStrategy).SetPeriods(30, 5) }},
		{"williams_r period", func() Strategy { return NewWilliamsRStrategy() },
			func(s Strategy) { s.(*WilliamsRStrategy).SetPeriod(30) }},
		{"bollinger period", func() Strategy { return NewBollingerStrategy() },
			func(s Strategy) { s.(*BollingerStrategy).SetPeriod(50) }},
		{"mean_reversion period", func() Strategy { return NewMeanReversion() },
			func(s Strategy) { s.(*MeanReversion).SetPeriod(50) }},
		{"atr_breakout lookback", func() Strategy { return NewATRBreakout() },
			func(s Strategy) { s.(*ATRBreakout).SetLookback(60) }},
		{"atr_breakout atr", func() Strategy { return NewATRBreakout() },
			func(s Strategy) { s.(*ATRBreakout).SetATRPeriod(40) }},
		{"grid center", func() Strategy { return NewGridTrading() },
			func(s Strategy) { s.(*GridTrading).SetCenterPeriod(60) }},
		{"volume_spike avg", func() Strategy { return NewVolumeSpike() },
			func(s Strategy) { s.(*VolumeSpike).SetAvgPeriod(60) }},
		{"vwap_reversion window", func() Strategy { return NewVWAPReversion() },
			func(s Strategy) { s.(*VWAPReversion).SetWindow(100) }},
	}

	for _, tc := range cases {
		s := tc.make()
		before := s.RequiredCandles()
		tc.bump(s)
		if got := s.RequiredCandles(); got <= before {
			t.Errorf("%s: larger period did not raise RequiredCandles: %d -> %d", tc.name, before, got)
		}
	}
}

func TestRSIInvalidLevelsIgnored(t *testing.T) {
	s := NewRSIStrategy()
	s.SetLevels(40, 30) // overbought must exceed 50
	s.SetLevels(70, 60) // oversold must sit below 50
	s.SetLevels(101, 30)

	candles := series(ramp(40, 100, 2), 0.5)
	sig := s.Signal(candles)
	if sig.Direction != model.Sell {
		t.Fatalf("steady uptrend should stay overbought at default levels, got %s (%s)", sig.Direction, sig.Reason)
	}
}

// ─────────────────────────────── directional scenarios ───────────────────────────────

func TestEMACrossoverSignalsBuyOnGoldenCross(t *testing.T) {
	// Decline long enough to set the fast EMA below the slow, then rally.
	closes := append(ramp(60, 200, -1), ramp(30, 140, 3)...)
	candles := series(closes, 0.5)

	s := NewEMACrossover()
	sawBuy := false
	for i := s.RequiredCandles(); i <= len(candles); i++ {
		sig := s.Signal(candles[:i])
		assertBounds(t, "ema_crossover/prefix", sig)
		if sig.Direction == model.Buy {
			sawBuy = true
		}
	}
	if !sawBuy {
		t.Fatal("rally after decline never produced a buy crossover")
	}
}

func TestMACDSignalsBuyOnMomentumTurn(t *testing.T) {
	closes := append(ramp(60, 200, -1), ramp(40, 140, 2)...)
	candles := series(closes, 0.5)

	s := NewMACDStrategy()
	sawBuy := false
	for i := s.RequiredCandles(); i <= len(candles); i++ {
		if s.Signal(candles[:i]).Direction == model.Buy {
			sawBuy = true
			break
		}
	}
	if !sawBuy {
		t.Fatal("momentum turn never produced a MACD buy")
	}
}

func TestRSISellsWhenOverbought(t *testing.T) {
	candles := series(ramp(40, 100, 1), 0.5)
	sig := NewRSIStrategy().Signal(candles)
	if sig.Direction != model.Sell {
		t.Fatalf("all-gains series should read overbought, got %s (%s)", sig.Direction, sig.Reason)
	}
	if sig.Confidence < 0.5 {
		t.Fatalf("pinned RSI should carry strong confidence, got %v", sig.Confidence)
	}
}

func TestRSIBuysWhenOversold(t *testing.T) {
	candles := series(ramp(40, 200, -1), 0.5)
	sig := NewRSIStrategy().Signal(candles)
	if sig.Direction != model.Buy {
		t.Fatalf("all-losses series should read oversold, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestStochasticSellsAtRangeTop(t *testing.T) {
	candles := series(ramp(40, 100, 1), 0.5)
	sig := NewStochasticStrategy().Signal(candles)
	if sig.Direction != model.Sell {
		t.Fatalf("close pinned at range top should sell, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestWilliamsRSellsAtRangeTop(t *testing.T) {
	candles := series(ramp(40, 100, 1), 0.5)
	sig := NewWilliamsRStrategy().Signal(candles)
	if sig.Direction != model.Sell {
		t.Fatalf("%%R at the ceiling should sell, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestBollingerFadesSpike(t *testing.T) {
	closes := ramp(25, 100, 0)
	closes[len(closes)-1] = 115
	sig := NewBollingerStrategy().Signal(series(closes, 0.2))
	if sig.Direction != model.Sell {
		t.Fatalf("spike above the upper band should sell, got %s (%s)", sig.Direction, sig.Reason)
	}

	closes[len(closes)-1] = 85
	sig = NewBollingerStrategy().Signal(series(closes, 0.2))
	if sig.Direction != model.Buy {
		t.Fatalf("spike below the lower band should buy, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestMeanReversionSellsLargePositiveZ(t *testing.T) {
	closes := ramp(20, 100, 0)
	closes[len(closes)-1] = 110
	sig := NewMeanReversion().Signal(series(closes, 0.2))
	if sig.Direction != model.Sell {
		t.Fatalf("z-score blowout above mean should sell, got %s (%s)", sig.Direction, sig.Reason)
	}
	// mean 100.5, sd ~2.18, z ~4.36, capped at the scale.
	if sig.Confidence < 0.9 {
		t.Fatalf("extreme z-score should carry near-full confidence, got %v", sig.Confidence)
	}
}

func TestATRBreakoutBuysUpsideBreak(t *testing.T) {
	closes := zigzag(30, 100, 1)
	closes[len(closes)-1] = 112
	sig := NewATRBreakout().Signal(series(closes, 1))
	if sig.Direction != model.Buy {
		t.Fatalf("close far above range plus ATR buffer should buy, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestGridBuysBelowCenter(t *testing.T) {
	closes := zigzag(30, 100, 1)
	closes[len(closes)-1] = 96
	sig := NewGridTrading().Signal(series(closes, 1))
	if sig.Direction != model.Buy {
		t.Fatalf("price levels below the grid center should buy, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestGridPausesInHighVolatility(t *testing.T) {
	// Wide true ranges push ATR/price over the ceiling.
	closes := zigzag(30, 100, 8)
	sig := NewGridTrading().Signal(series(closes, 4))
	if sig.Direction != model.Hold {
		t.Fatalf("grid should pause when volatility exceeds the ceiling, got %s (%s)", sig.Direction, sig.Reason)
	}
	if !strings.Contains(sig.Reason, "paused") {
		t.Fatalf("pause reason missing, got %q", sig.Reason)
	}
}

func TestVolumeSpikeConfirmsDirection(t *testing.T) {
	candles := series(ramp(30, 100, 0.01), 0.2)
	last := &candles[len(candles)-1]
	last.Close = last.Open * 1.02
	last.High = last.Close + 0.2
	last.Volume = 5000

	sig := NewVolumeSpike().Signal(candles)
	if sig.Direction != model.Buy {
		t.Fatalf("volume spike on an up move should buy, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestVWAPReversionFadesDeviation(t *testing.T) {
	closes := ramp(30, 100, 0)
	closes[len(closes)-1] = 106
	sig := NewVWAPReversion().Signal(series(closes, 0.2))
	if sig.Direction != model.Sell {
		t.Fatalf("price stretched above VWAP should sell, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestIchimokuBullishInStrongUptrend(t *testing.T) {
	candles := series(ramp(90, 100, 1), 0.5)
	sig := NewIchimokuStrategy().Signal(candles)
	if sig.Direction != model.Buy {
		t.Fatalf("long uptrend should align the cloud bullishly, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestParabolicSARHoldsOrBuysInUptrend(t *testing.T) {
	candles := series(ramp(40, 100, 1), 0.5)
	sig := NewParabolicSARStrategy().Signal(candles)
	if sig.Direction == model.Sell {
		t.Fatalf("steady uptrend should not read as a SAR sell, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestSwingCompositeBuysPullbackBreakout(t *testing.T) {
	closes := ramp(35, 100, 1)
	candles := series(closes, 0.5)
	last := &candles[len(candles)-1]
	last.Close = last.Open + 2
	last.High = last.Close + 0.5
	last.Volume = 2000

	sig := NewSwingComposite().Signal(candles)
	if sig.Direction != model.Buy {
		t.Fatalf("breakout candle in an uptrend should buy, got %s (%s)", sig.Direction, sig.Reason)
	}
}
