package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// ParabolicSARStrategy signals when price crosses the Parabolic SAR between
// the last two candles, flipping the trailing stop-and-reverse side.
type ParabolicSARStrategy struct {
	mu       sync.RWMutex
	accel    float64 // valid range (0, 0.1]
	maxAccel float64 // valid range [accel, 1.0]
	lookback int     // valid range [5, 200]; candles fed to the SAR scan
}

// NewParabolicSARStrategy creates the strategy with the standard 0.02/0.2
// acceleration and a 30-candle scan window.
func NewParabolicSARStrategy() *ParabolicSARStrategy {
	return &ParabolicSARStrategy{accel: 0.02, maxAccel: 0.2, lookback: 30}
}

func (s *ParabolicSARStrategy) Name() string { return "parabolic_sar" }

func (s *ParabolicSARStrategy) Description() string {
	return "Parabolic SAR trailing stop-and-reverse trend following"
}

// SetAccel updates the acceleration step. Values outside (0,0.1] or above
// the cap are ignored.
func (s *ParabolicSARStrategy) SetAccel(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v <= 0 || v > 0.1 || v > s.maxAccel {
		return
	}
	s.accel = v
}

// SetMaxAccel updates the acceleration cap. Values below the step or above
// 1.0 are ignored.
func (s *ParabolicSARStrategy) SetMaxAccel(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < s.accel || v > 1.0 {
		return
	}
	s.maxAccel = v
}

// SetLookback updates the scan window. Values outside [5,200] are ignored.
func (s *ParabolicSARStrategy) SetLookback(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 5 || n > 200 {
		return
	}
	s.lookback = n
}

func (s *ParabolicSARStrategy) params() (float64, float64, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accel, s.maxAccel, s.lookback
}

func (s *ParabolicSARStrategy) RequiredCandles() int {
	_, _, lookback := s.params()
	return lookback
}

func (s *ParabolicSARStrategy) Signal(candles []model.Candle) model.StrategySignal {
	accel, maxAccel, lookback := s.params()

	if len(candles) < lookback {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	window := candles[len(candles)-lookback:]
	sar := indicator.ParabolicSAR(window, accel, maxAccel)
	if len(sar) < 2 {
		return trendFallback(s.Name(), candles, "fallback (sar unavailable)")
	}

	currClose := window[len(window)-1].Close
	prevClose := window[len(window)-2].Close
	currSAR := sar[len(sar)-1]
	prevSAR := sar[len(sar)-2]

	conf := 0.0
	if currClose != 0 {
		conf = math.Min(1, math.Abs(currClose-currSAR)/math.Abs(currClose)*20)
	}

	if prevClose <= prevSAR && currClose > currSAR {
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("price crossed above SAR: %.4f > %.4f", currClose, currSAR))
	}
	if prevClose >= prevSAR && currClose < currSAR {
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("price crossed below SAR: %.4f < %.4f", currClose, currSAR))
	}

	side := "above"
	if currClose < currSAR {
		side = "below"
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, conf),
		fmt.Sprintf("no reversal, price %s SAR (%.4f vs %.4f)", side, currClose, currSAR))
}
