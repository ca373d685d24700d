package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// GridTrading lays ATR-spaced levels around a rolling center and buys below
// it, sells above it, stepping confidence with the number of levels crossed.
// It pauses in high volatility and re-anchors when price escapes the grid.
type GridTrading struct {
	mu            sync.RWMutex
	centerPeriod  int     // valid range [2, 200]; SMA center
	atrPeriod     int     // valid range [2, 100]
	spacingFactor float64 // valid range (0, 5]; grid spacing = ATR * factor
	maxLevels     int     // valid range [1, 20]
	maxVolatility float64 // valid range (0, 1]; ATR/price ceiling before pausing
}

// NewGridTrading creates the strategy with an SMA(20) center, ATR(14)
// half-spacing, five levels a side and a 5% volatility ceiling.
func NewGridTrading() *GridTrading {
	return &GridTrading{
		centerPeriod:  20,
		atrPeriod:     14,
		spacingFactor: 0.5,
		maxLevels:     5,
		maxVolatility: 0.05,
	}
}

func (s *GridTrading) Name() string { return "grid_trading" }

func (s *GridTrading) Description() string {
	return "ATR-spaced grid around a rolling center"
}

// SetCenterPeriod updates the SMA center period. Values outside [2,200]
// are ignored.
func (s *GridTrading) SetCenterPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 200 {
		return
	}
	s.centerPeriod = n
}

// SetSpacingFactor updates the ATR multiple between grid levels. Values
// outside (0,5] are ignored.
func (s *GridTrading) SetSpacingFactor(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f <= 0 || f > 5 {
		return
	}
	s.spacingFactor = f
}

// SetMaxVolatility updates the ATR/price ceiling above which the grid
// pauses. Values outside (0,1] are ignored.
func (s *GridTrading) SetMaxVolatility(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v <= 0 || v > 1 {
		return
	}
	s.maxVolatility = v
}

func (s *GridTrading) params() (int, int, float64, int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.centerPeriod, s.atrPeriod, s.spacingFactor, s.maxLevels, s.maxVolatility
}

func (s *GridTrading) RequiredCandles() int {
	centerP, atrP, _, _, _ := s.params()
	n := centerP
	if atrP+1 > n {
		n = atrP + 1
	}
	return n
}

func (s *GridTrading) Signal(candles []model.Candle) model.StrategySignal {
	centerP, atrP, spacingF, maxLevels, maxVol := s.params()

	if len(candles) < s.RequiredCandles() {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	sma := indicator.SMA(closes, centerP)
	atr := indicator.ATR(candles, atrP)
	if len(sma) == 0 || len(atr) == 0 || atr[len(atr)-1] <= 0 {
		return trendFallback(s.Name(), candles, "fallback (grid anchors unavailable)")
	}

	center := sma[len(sma)-1]
	lastATR := atr[len(atr)-1]
	price := closes[len(closes)-1]

	if price > 0 && lastATR/price > maxVol {
		return model.NewSignal(s.Name(), model.Hold, 0.2,
			fmt.Sprintf("grid paused, volatility %.2f%% above ceiling", lastATR/price*100))
	}

	spacing := lastATR * spacingF
	if spacing <= 0 {
		return model.NewSignal(s.Name(), model.Hold, 0.1, "grid spacing collapsed")
	}

	offset := price - center
	levels := offset / spacing
	absLevels := math.Abs(levels)

	if absLevels > float64(maxLevels)+1 {
		return model.NewSignal(s.Name(), model.Hold, 0.2,
			fmt.Sprintf("price escaped grid (%.1f levels), re-anchoring", levels))
	}
	if absLevels < 1 {
		return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, absLevels*0.3),
			fmt.Sprintf("price at grid center: %.4f vs %.4f", price, center))
	}

	conf := math.Min(0.9, 0.4+absLevels/float64(maxLevels)*0.5)
	if levels < 0 {
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("price %.1f grid levels below center %.4f", absLevels, center))
	}
	return model.NewSignal(s.Name(), model.Sell, conf,
		fmt.Sprintf("price %.1f grid levels above center %.4f", absLevels, center))
}
