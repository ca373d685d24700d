package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// VWAPReversion fades price stretched away from the volume-weighted average
// price over the visible window.
type VWAPReversion struct {
	mu        sync.RWMutex
	window    int     // valid range [5, 500]; candles in the VWAP accumulation
	threshold float64 // valid range (0, 0.5]; fractional deviation that triggers
}

// NewVWAPReversion creates the strategy with a 30-candle window and a 2%
// deviation trigger.
func NewVWAPReversion() *VWAPReversion {
	return &VWAPReversion{window: 30, threshold: 0.02}
}

func (s *VWAPReversion) Name() string { return "vwap_reversion" }

func (s *VWAPReversion) Description() string {
	return "Reversion to the volume-weighted average price"
}

// SetWindow updates the accumulation window. Values outside [5,500] are
// ignored.
func (s *VWAPReversion) SetWindow(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 5 || n > 500 {
		return
	}
	s.window = n
}

// SetThreshold updates the deviation trigger. Values outside (0,0.5] are
// ignored.
func (s *VWAPReversion) SetThreshold(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t <= 0 || t > 0.5 {
		return
	}
	s.threshold = t
}

func (s *VWAPReversion) params() (int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window, s.threshold
}

func (s *VWAPReversion) RequiredCandles() int {
	window, _ := s.params()
	return window
}

func (s *VWAPReversion) Signal(candles []model.Candle) model.StrategySignal {
	window, threshold := s.params()

	if len(candles) < window {
		return volumeFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	vwap := indicator.VWAP(candles[len(candles)-window:])
	if len(vwap) == 0 {
		return volumeFallback(s.Name(), candles, "fallback (vwap unavailable)")
	}

	anchor := vwap[len(vwap)-1]
	price := candles[len(candles)-1].Close
	if anchor == 0 {
		return model.NewSignal(s.Name(), model.Hold, 0.1, "vwap anchor unavailable")
	}

	dev := (price - anchor) / anchor
	conf := math.Min(1, math.Abs(dev)*25)

	switch {
	case dev <= -threshold:
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("price %.2f%% below VWAP %.4f", dev*100, anchor))
	case dev >= threshold:
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("price %.2f%% above VWAP %.4f", dev*100, anchor))
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, conf),
		fmt.Sprintf("price near VWAP: %.2f%% deviation", dev*100))
}
