package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// SwingComposite looks for pullback entries in an established trend: an
// EMA trend filter, an RSI pullback zone, and a volume-confirmed breakout
// candle each add to the composite score.
type SwingComposite struct {
	mu          sync.RWMutex
	trendPeriod int     // valid range [5, 200]; EMA trend filter
	rsiPeriod   int     // valid range [2, 100]
	pullbackLo  float64 // RSI pullback band, valid (0, pullbackHi)
	pullbackHi  float64 // valid (pullbackLo, 100)
}

// NewSwingComposite creates the strategy with an EMA(20) trend filter and
// an RSI(14) pullback band of 40..55.
func NewSwingComposite() *SwingComposite {
	return &SwingComposite{trendPeriod: 20, rsiPeriod: 14, pullbackLo: 40, pullbackHi: 55}
}

func (s *SwingComposite) Name() string { return "swing_composite" }

func (s *SwingComposite) Description() string {
	return "EMA trend plus RSI pullback swing entries with volume confirmation"
}

// SetTrendPeriod updates the EMA trend filter period. Values outside
// [5,200] are ignored.
func (s *SwingComposite) SetTrendPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 5 || n > 200 {
		return
	}
	s.trendPeriod = n
}

// SetRSIPeriod updates the pullback oscillator period. Values outside
// [2,100] are ignored.
func (s *SwingComposite) SetRSIPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 {
		return
	}
	s.rsiPeriod = n
}

// SetPullbackBand updates the RSI pullback zone. Bands that are inverted
// or outside (0,100) are ignored.
func (s *SwingComposite) SetPullbackBand(lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lo <= 0 || hi >= 100 || lo >= hi {
		return
	}
	s.pullbackLo, s.pullbackHi = lo, hi
}

func (s *SwingComposite) params() (int, int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trendPeriod, s.rsiPeriod, s.pullbackLo, s.pullbackHi
}

func (s *SwingComposite) RequiredCandles() int {
	trendP, rsiP, _, _ := s.params()
	n := trendP + 2
	if rsiP+2 > n {
		n = rsiP + 2
	}
	return n
}

func (s *SwingComposite) Signal(candles []model.Candle) model.StrategySignal {
	trendP, rsiP, pbLo, pbHi := s.params()

	if len(candles) < s.RequiredCandles() {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	ema := indicator.EMA(closes, trendP)
	rsi := indicator.RSI(closes, rsiP)
	if len(ema) < 2 || len(rsi) == 0 {
		return momentumFallback(s.Name(), candles, "fallback (indicators unavailable)")
	}

	price := closes[len(closes)-1]
	trend := ema[len(ema)-1]
	trendPrev := ema[len(ema)-2]
	lastRSI := rsi[len(rsi)-1]
	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	uptrend := price > trend && trend > trendPrev
	downtrend := price < trend && trend < trendPrev

	avgVol := 0.0
	volWindow := 10
	if len(candles)-1 < volWindow {
		volWindow = len(candles) - 1
	}
	for _, c := range candles[len(candles)-1-volWindow : len(candles)-1] {
		avgVol += c.Volume
	}
	if volWindow > 0 {
		avgVol /= float64(volWindow)
	}
	volConfirmed := avgVol > 0 && last.Volume > avgVol*1.2

	score := 0.0
	dir := model.Hold
	switch {
	case uptrend:
		dir = model.Buy
		score += 0.4
		if lastRSI >= pbLo && lastRSI <= pbHi {
			score += 0.2
		}
		if volConfirmed {
			score += 0.15
		}
		if last.Close > prev.High && last.Close > last.Open {
			score += 0.2
		}
	case downtrend:
		dir = model.Sell
		score += 0.4
		if lastRSI >= 100-pbHi && lastRSI <= 100-pbLo {
			score += 0.2
		}
		if volConfirmed {
			score += 0.15
		}
		if last.Close < prev.Low && last.Close < last.Open {
			score += 0.2
		}
	}

	if dir == model.Hold || score < 0.5 {
		return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, score),
			fmt.Sprintf("no swing setup, score %.2f (rsi %.1f)", score, lastRSI))
	}
	conf := math.Min(0.9, score)
	return model.NewSignal(s.Name(), dir, conf,
		fmt.Sprintf("swing setup in trend, score %.2f (rsi %.1f)", score, lastRSI))
}
