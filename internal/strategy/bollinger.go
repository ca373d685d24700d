package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// BollingerStrategy fades touches of the Bollinger bands: price at the
// lower band is a buy, price at the upper band is a sell.
type BollingerStrategy struct {
	mu     sync.RWMutex
	period int     // valid range [2, 200]
	stddev float64 // valid range (0, 5]
}

// NewBollingerStrategy creates the strategy with the standard 20-period
// 2-sigma bands.
func NewBollingerStrategy() *BollingerStrategy {
	return &BollingerStrategy{period: 20, stddev: 2}
}

func (s *BollingerStrategy) Name() string { return "bollinger" }

func (s *BollingerStrategy) Description() string {
	return "Bollinger band touch mean reversion"
}

// SetPeriod updates the band period. Values outside [2,200] are ignored.
func (s *BollingerStrategy) SetPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 200 {
		return
	}
	s.period = n
}

// SetStdDev updates the band width multiplier. Values outside (0,5] are
// ignored.
func (s *BollingerStrategy) SetStdDev(k float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k <= 0 || k > 5 {
		return
	}
	s.stddev = k
}

func (s *BollingerStrategy) params() (int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period, s.stddev
}

func (s *BollingerStrategy) RequiredCandles() int {
	period, _ := s.params()
	return period
}

func (s *BollingerStrategy) Signal(candles []model.Candle) model.StrategySignal {
	period, k := s.params()

	if len(candles) < period {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	bands := indicator.BollingerBands(closes, period, k)
	if len(bands.Middle) == 0 {
		return trendFallback(s.Name(), candles, "fallback (bands unavailable)")
	}

	price := closes[len(closes)-1]
	upper := bands.Upper[len(bands.Upper)-1]
	lower := bands.Lower[len(bands.Lower)-1]
	mid := bands.Middle[len(bands.Middle)-1]

	width := upper - lower
	if width <= 0 {
		return model.NewSignal(s.Name(), model.Hold, 0.1, "bands collapsed, no dispersion")
	}

	// Band position: 0 at the lower band, 1 at the upper band.
	pos := (price - lower) / width

	switch {
	case pos <= 0.1:
		conf := math.Min(0.9, 0.5+(0.1-pos)*4)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("price at lower band: %.4f (band pos %.2f)", price, pos))
	case pos >= 0.9:
		conf := math.Min(0.9, 0.5+(pos-0.9)*4)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("price at upper band: %.4f (band pos %.2f)", price, pos))
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, math.Abs(pos-0.5)),
		fmt.Sprintf("price inside bands: %.4f (mid %.4f, pos %.2f)", price, mid, pos))
}
