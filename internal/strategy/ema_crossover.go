package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// EMACrossover signals on a fast EMA crossing a slow EMA between the last
// two candles. Confidence scales with the normalized gap between the two
// averages at the cross.
type EMACrossover struct {
	mu         sync.RWMutex
	fastPeriod int // valid range [2,100], must stay < slowPeriod
	slowPeriod int // valid range [3,400], must stay > fastPeriod
}

// NewEMACrossover creates the strategy with the default 9/21 periods.
func NewEMACrossover() *EMACrossover {
	return &EMACrossover{fastPeriod: 9, slowPeriod: 21}
}

func (s *EMACrossover) Name() string { return "ema_crossover" }

func (s *EMACrossover) Description() string {
	return "Fast/slow EMA crossover trend following"
}

// SetFastPeriod updates the fast period. Values outside [2,100] or not below
// the slow period are ignored.
func (s *EMACrossover) SetFastPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 || n >= s.slowPeriod {
		return
	}
	s.fastPeriod = n
}

// SetSlowPeriod updates the slow period. Values outside [3,400] or not above
// the fast period are ignored.
func (s *EMACrossover) SetSlowPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 3 || n > 400 || n <= s.fastPeriod {
		return
	}
	s.slowPeriod = n
}

func (s *EMACrossover) periods() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fastPeriod, s.slowPeriod
}

// RequiredCandles needs two consecutive slow-EMA points for cross detection.
func (s *EMACrossover) RequiredCandles() int {
	_, slow := s.periods()
	return slow + 1
}

func (s *EMACrossover) Signal(candles []model.Candle) model.StrategySignal {
	fast, slow := s.periods()

	if len(candles) < slow+1 {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	emaFast := indicator.EMA(closes, fast)
	emaSlow := indicator.EMA(closes, slow)
	if len(emaFast) < 2 || len(emaSlow) < 2 {
		return momentumFallback(s.Name(), candles, "fallback (ema unavailable)")
	}

	currFast, prevFast := emaFast[len(emaFast)-1], emaFast[len(emaFast)-2]
	currSlow, prevSlow := emaSlow[len(emaSlow)-1], emaSlow[len(emaSlow)-2]

	if prevFast <= prevSlow && currFast > currSlow {
		conf := crossoverConfidence(currFast, currSlow)
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("EMA(%d) crossed above EMA(%d): %.4f > %.4f", fast, slow, currFast, currSlow))
	}
	if prevFast >= prevSlow && currFast < currSlow {
		conf := crossoverConfidence(currFast, currSlow)
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("EMA(%d) crossed below EMA(%d): %.4f < %.4f", fast, slow, currFast, currSlow))
	}

	// No cross; report the prevailing side weakly.
	conf := math.Min(0.3, crossoverConfidence(currFast, currSlow))
	if currFast > currSlow {
		return model.NewSignal(s.Name(), model.Hold, conf,
			fmt.Sprintf("no crossover, fast above slow (%.4f vs %.4f)", currFast, currSlow))
	}
	return model.NewSignal(s.Name(), model.Hold, conf,
		fmt.Sprintf("no crossover, fast below slow (%.4f vs %.4f)", currFast, currSlow))
}
