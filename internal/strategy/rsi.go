package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// RSIStrategy sells in overbought territory and buys in oversold territory,
// with a divergence check that can override the plain threshold signal at
// higher confidence.
type RSIStrategy struct {
	mu         sync.RWMutex
	period     int     // valid range [2, 100]
	overbought float64 // valid range (50, 100)
	oversold   float64 // valid range (0, 50)
}

// NewRSIStrategy creates the strategy with the standard 14/70/30 settings.
func NewRSIStrategy() *RSIStrategy {
	return &RSIStrategy{period: 14, overbought: 70, oversold: 30}
}

func (s *RSIStrategy) Name() string { return "rsi" }

func (s *RSIStrategy) Description() string {
	return "RSI overbought/oversold with divergence override"
}

// SetPeriod updates the RSI period. Values outside [2,100] are ignored.
func (s *RSIStrategy) SetPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 {
		return
	}
	s.period = n
}

// SetLevels updates the overbought/oversold thresholds. The overbought
// level must be in (50,100) and the oversold level in (0,50); invalid
// pairs are ignored.
func (s *RSIStrategy) SetLevels(overbought, oversold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if overbought <= 50 || overbought >= 100 || oversold <= 0 || oversold >= 50 {
		return
	}
	s.overbought, s.oversold = overbought, oversold
}

func (s *RSIStrategy) params() (int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period, s.overbought, s.oversold
}

func (s *RSIStrategy) RequiredCandles() int {
	period, _, _ := s.params()
	return period + 1
}

func (s *RSIStrategy) Signal(candles []model.Candle) model.StrategySignal {
	period, overbought, oversold := s.params()

	if len(candles) < period+1 {
		return momentumFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	rsi := indicator.RSI(closes, period)
	if len(rsi) == 0 {
		return momentumFallback(s.Name(), candles, "fallback (rsi unavailable)")
	}

	// Divergence over the trailing points outranks the plain threshold.
	if dir, reason, ok := s.divergence(closes, rsi); ok {
		return model.NewSignal(s.Name(), dir, 0.8, reason)
	}

	last := rsi[len(rsi)-1]
	switch {
	case last >= overbought:
		conf := math.Min(0.95, 0.5+(last-overbought)/(100-overbought)*0.45)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("RSI overbought: %.1f >= %.1f", last, overbought))
	case last <= oversold:
		conf := math.Min(0.95, 0.5+(oversold-last)/oversold*0.45)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("RSI oversold: %.1f <= %.1f", last, oversold))
	}
	dist := math.Abs(last-50) / 50
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, dist),
		fmt.Sprintf("RSI neutral: %.1f", last))
}

// divergence looks at the trailing window for two price swing lows with a
// lower low in price but a higher low in RSI (bullish), or the mirror image
// on swing highs (bearish).
func (s *RSIStrategy) divergence(closes, rsi []float64) (model.Direction, string, bool) {
	const window = 10
	if len(rsi) < window || len(closes) < window {
		return model.Hold, "", false
	}
	c := closes[len(closes)-window:]
	r := rsi[len(rsi)-window:]

	var lowIdx, highIdx []int
	for i := 1; i < window-1; i++ {
		if c[i] < c[i-1] && c[i] < c[i+1] {
			lowIdx = append(lowIdx, i)
		}
		if c[i] > c[i-1] && c[i] > c[i+1] {
			highIdx = append(highIdx, i)
		}
	}

	if len(lowIdx) >= 2 {
		a, b := lowIdx[len(lowIdx)-2], lowIdx[len(lowIdx)-1]
		if c[b] < c[a] && r[b] > r[a] {
			return model.Buy,
				fmt.Sprintf("bullish divergence: price %.4f<%.4f, RSI %.1f>%.1f", c[b], c[a], r[b], r[a]),
				true
		}
	}
	if len(highIdx) >= 2 {
		a, b := highIdx[len(highIdx)-2], highIdx[len(highIdx)-1]
		if c[b] > c[a] && r[b] < r[a] {
			return model.Sell,
				fmt.Sprintf("bearish divergence: price %.4f>%.4f, RSI %.1f<%.1f", c[b], c[a], r[b], r[a]),
				true
		}
	}
	return model.Hold, "", false
}
