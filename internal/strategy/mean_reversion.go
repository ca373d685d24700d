package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// MeanReversion trades z-score extremes against a moving average: a large
// negative z-score is a buy, a large positive one a sell.
type MeanReversion struct {
	mu        sync.RWMutex
	period    int     // valid range [2, 200]
	entryZ    float64 // valid range (0, 10]; |z| that triggers a signal
	maxZScale float64 // z magnitude mapped to full confidence, > entryZ
}

// NewMeanReversion creates the strategy with a 20-period mean and a
// 2-sigma entry.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{period: 20, entryZ: 2, maxZScale: 4}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Description() string {
	return "Z-score mean reversion against a rolling average"
}

// SetPeriod updates the averaging period. Values outside [2,200] are
// ignored.
func (s *MeanReversion) SetPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 200 {
		return
	}
	s.period = n
}

// SetEntryZ updates the trigger z-score. Values outside (0,10] or at or
// above the full-confidence scale are ignored.
func (s *MeanReversion) SetEntryZ(z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if z <= 0 || z > 10 || z >= s.maxZScale {
		return
	}
	s.entryZ = z
}

func (s *MeanReversion) params() (int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period, s.entryZ, s.maxZScale
}

func (s *MeanReversion) RequiredCandles() int {
	period, _, _ := s.params()
	return period
}

func (s *MeanReversion) Signal(candles []model.Candle) model.StrategySignal {
	period, entryZ, maxZ := s.params()

	if len(candles) < period {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	sma := indicator.SMA(closes, period)
	if len(sma) == 0 {
		return trendFallback(s.Name(), candles, "fallback (sma unavailable)")
	}

	mean := sma[len(sma)-1]
	price := closes[len(closes)-1]

	variance := 0.0
	for _, v := range closes[len(closes)-period:] {
		d := v - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	if sd == 0 {
		return model.NewSignal(s.Name(), model.Hold, 0.1, "no dispersion around mean")
	}

	z := (price - mean) / sd
	conf := math.Min(1, math.Abs(z)/maxZ)

	switch {
	case z <= -entryZ:
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("price stretched below mean: z %.2f", z))
	case z >= entryZ:
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("price stretched above mean: z %.2f", z))
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, conf),
		fmt.Sprintf("price near mean: z %.2f", z))
}
