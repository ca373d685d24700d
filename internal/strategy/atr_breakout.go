package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// ATRBreakout signals when price clears a recent extreme by a multiple of
// the average true range, filtering out breakouts that stay inside normal
// noise.
type ATRBreakout struct {
	mu         sync.RWMutex
	lookback   int     // valid range [5, 200]; window for recent high/low
	atrPeriod  int     // valid range [2, 100]
	multiplier float64 // valid range (0, 10]
}

// NewATRBreakout creates the strategy with a 20-candle range, ATR(14) and
// a 1.5x multiplier.
func NewATRBreakout() *ATRBreakout {
	return &ATRBreakout{lookback: 20, atrPeriod: 14, multiplier: 1.5}
}

func (s *ATRBreakout) Name() string { return "atr_breakout" }

func (s *ATRBreakout) Description() string {
	return "Volatility-scaled breakout of the recent range"
}

// SetLookback updates the range window. Values outside [5,200] are
// ignored.
func (s *ATRBreakout) SetLookback(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 5 || n > 200 {
		return
	}
	s.lookback = n
}

// SetATRPeriod updates the ATR period. Values outside [2,100] are ignored.
func (s *ATRBreakout) SetATRPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 {
		return
	}
	s.atrPeriod = n
}

// SetMultiplier updates the ATR multiple. Values outside (0,10] are
// ignored.
func (s *ATRBreakout) SetMultiplier(m float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m <= 0 || m > 10 {
		return
	}
	s.multiplier = m
}

func (s *ATRBreakout) params() (int, int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookback, s.atrPeriod, s.multiplier
}

func (s *ATRBreakout) RequiredCandles() int {
	lookback, atrPeriod, _ := s.params()
	n := lookback + 1
	if atrPeriod+1 > n {
		n = atrPeriod + 1
	}
	return n
}

func (s *ATRBreakout) Signal(candles []model.Candle) model.StrategySignal {
	lookback, atrPeriod, mult := s.params()

	if len(candles) < s.RequiredCandles() {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	atr := indicator.ATR(candles, atrPeriod)
	if len(atr) == 0 || atr[len(atr)-1] <= 0 {
		return momentumFallback(s.Name(), candles, "fallback (atr unavailable)")
	}
	lastATR := atr[len(atr)-1]

	// Range excludes the breakout candle itself.
	prior := candles[len(candles)-1-lookback : len(candles)-1]
	recentHigh := prior[0].High
	recentLow := prior[0].Low
	for _, c := range prior[1:] {
		if c.High > recentHigh {
			recentHigh = c.High
		}
		if c.Low < recentLow {
			recentLow = c.Low
		}
	}

	price := candles[len(candles)-1].Close
	upperLevel := recentHigh + lastATR*mult
	lowerLevel := recentLow - lastATR*mult

	switch {
	case price > upperLevel:
		breach := (price - upperLevel) / lastATR
		conf := math.Min(0.95, 0.6+breach*0.2)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("upside breakout: %.4f > %.4f (%.2f ATR past level)", price, upperLevel, breach))
	case price < lowerLevel:
		breach := (lowerLevel - price) / lastATR
		conf := math.Min(0.95, 0.6+breach*0.2)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("downside breakout: %.4f < %.4f (%.2f ATR past level)", price, lowerLevel, breach))
	}
	span := upperLevel - lowerLevel
	pos := 0.0
	if span > 0 {
		pos = math.Abs(price-(upperLevel+lowerLevel)/2) / span
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, pos),
		fmt.Sprintf("inside range: %.4f in [%.4f, %.4f]", price, lowerLevel, upperLevel))
}
