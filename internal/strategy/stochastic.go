package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// StochasticStrategy trades %K/%D crossovers inside overbought and oversold
// zones.
type StochasticStrategy struct {
	mu         sync.RWMutex
	kPeriod    int     // valid range [2, 100]
	dPeriod    int     // valid range [1, 50]
	overbought float64 // valid range (50, 100)
	oversold   float64 // valid range (0, 50)
}

// NewStochasticStrategy creates the strategy with the standard 14/3 and
// 80/20 settings.
func NewStochasticStrategy() *StochasticStrategy {
	return &StochasticStrategy{kPeriod: 14, dPeriod: 3, overbought: 80, oversold: 20}
}

func (s *StochasticStrategy) Name() string { return "stochastic" }

func (s *StochasticStrategy) Description() string {
	return "Stochastic %K/%D crossover in overbought/oversold zones"
}

// SetPeriods updates the %K and %D periods. Values outside [2,100] and
// [1,50] are ignored.
func (s *StochasticStrategy) SetPeriods(k, d int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k < 2 || k > 100 || d < 1 || d > 50 {
		return
	}
	s.kPeriod, s.dPeriod = k, d
}

// SetLevels updates the overbought/oversold zones. Invalid pairs are
// ignored.
func (s *StochasticStrategy) SetLevels(overbought, oversold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if overbought <= 50 || overbought >= 100 || oversold <= 0 || oversold >= 50 {
		return
	}
	s.overbought, s.oversold = overbought, oversold
}

func (s *StochasticStrategy) params() (int, int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kPeriod, s.dPeriod, s.overbought, s.oversold
}

func (s *StochasticStrategy) RequiredCandles() int {
	k, d, _, _ := s.params()
	return k + d + 1
}

func (s *StochasticStrategy) Signal(candles []model.Candle) model.StrategySignal {
	kPeriod, dPeriod, overbought, oversold := s.params()

	if len(candles) < s.RequiredCandles() {
		return momentumFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	highs := model.Highs(candles)
	lows := model.Lows(candles)
	closes := model.Closes(candles)

	sto := indicator.Stochastic(highs, lows, closes, kPeriod, dPeriod)
	if len(sto.K) < 2 || len(sto.D) < 2 {
		return momentumFallback(s.Name(), candles, "fallback (stochastic unavailable)")
	}

	// Align %K to %D: D is the SMA of K, so it starts later.
	kOff := len(sto.K) - len(sto.D)
	k := sto.K[kOff+len(sto.D)-1]
	kPrev := sto.K[kOff+len(sto.D)-2]
	d := sto.D[len(sto.D)-1]
	dPrev := sto.D[len(sto.D)-2]

	crossUp := kPrev <= dPrev && k > d
	crossDown := kPrev >= dPrev && k < d

	switch {
	case crossUp && k <= oversold+10:
		conf := math.Min(0.9, 0.5+(oversold+10-k)/(oversold+10)*0.4)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("%%K crossed above %%D near oversold: K %.1f, D %.1f", k, d))
	case crossDown && k >= overbought-10:
		conf := math.Min(0.9, 0.5+(k-overbought+10)/(100-overbought+10)*0.4)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("%%K crossed below %%D near overbought: K %.1f, D %.1f", k, d))
	case k <= oversold:
		return model.NewSignal(s.Name(), model.Buy, 0.45,
			fmt.Sprintf("%%K oversold: %.1f <= %.1f", k, oversold))
	case k >= overbought:
		return model.NewSignal(s.Name(), model.Sell, 0.45,
			fmt.Sprintf("%%K overbought: %.1f >= %.1f", k, overbought))
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, math.Abs(k-50)/100),
		fmt.Sprintf("stochastic neutral: K %.1f, D %.1f", k, d))
}
