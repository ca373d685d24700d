package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// WilliamsRStrategy buys when Williams %R leaves the oversold floor and
// sells when it leaves the overbought ceiling.
type WilliamsRStrategy struct {
	mu         sync.RWMutex
	period     int     // valid range [2, 100]
	overbought float64 // valid range (-50, 0)
	oversold   float64 // valid range (-100, -50)
}

// NewWilliamsRStrategy creates the strategy with the standard 14 period
// and -20/-80 levels.
func NewWilliamsRStrategy() *WilliamsRStrategy {
	return &WilliamsRStrategy{period: 14, overbought: -20, oversold: -80}
}

func (s *WilliamsRStrategy) Name() string { return "williams_r" }

func (s *WilliamsRStrategy) Description() string {
	return "Williams %R overbought/oversold reversals"
}

// SetPeriod updates the lookback. Values outside [2,100] are ignored.
func (s *WilliamsRStrategy) SetPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 {
		return
	}
	s.period = n
}

// SetLevels updates the overbought/oversold levels. The overbought level
// must sit in (-50,0) and the oversold level in (-100,-50); invalid pairs
// are ignored.
func (s *WilliamsRStrategy) SetLevels(overbought, oversold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if overbought >= 0 || overbought <= -50 || oversold >= -50 || oversold <= -100 {
		return
	}
	s.overbought, s.oversold = overbought, oversold
}

func (s *WilliamsRStrategy) params() (int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period, s.overbought, s.oversold
}

func (s *WilliamsRStrategy) RequiredCandles() int {
	period, _, _ := s.params()
	return period + 1
}

func (s *WilliamsRStrategy) Signal(candles []model.Candle) model.StrategySignal {
	period, overbought, oversold := s.params()

	if len(candles) < period+1 {
		return momentumFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	highs := model.Highs(candles)
	lows := model.Lows(candles)
	closes := model.Closes(candles)

	wr := indicator.WilliamsR(highs, lows, closes, period)
	if len(wr) < 2 {
		return momentumFallback(s.Name(), candles, "fallback (williams unavailable)")
	}

	last := wr[len(wr)-1]
	prev := wr[len(wr)-2]

	switch {
	case prev <= oversold && last > oversold:
		conf := math.Min(0.85, 0.5+(last-oversold)/math.Abs(oversold)*0.5)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("%%R left oversold: %.1f -> %.1f", prev, last))
	case prev >= overbought && last < overbought:
		conf := math.Min(0.85, 0.5+(overbought-last)/math.Abs(overbought+100)*0.5)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("%%R left overbought: %.1f -> %.1f", prev, last))
	case last <= oversold:
		return model.NewSignal(s.Name(), model.Buy, 0.4,
			fmt.Sprintf("%%R oversold: %.1f <= %.1f", last, oversold))
	case last >= overbought:
		return model.NewSignal(s.Name(), model.Sell, 0.4,
			fmt.Sprintf("%%R overbought: %.1f >= %.1f", last, overbought))
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, math.Abs(last+50)/100),
		fmt.Sprintf("%%R neutral: %.1f", last))
}
