package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// IchimokuStrategy scores the five Ichimoku components into a composite
// signal: TK cross, price vs cloud, cloud colour, chikou confirmation and
// price vs kijun each contribute a fixed share.
type IchimokuStrategy struct {
	mu           sync.RWMutex
	tenkanPeriod int // valid range [2, 100]
	kijunPeriod  int // valid range [2, 200], > tenkan
	senkouB      int // valid range [2, 400], > kijun
	displacement int // valid range [1, 100]
}

// NewIchimokuStrategy creates the strategy with the classic 9/26/52/26
// settings.
func NewIchimokuStrategy() *IchimokuStrategy {
	return &IchimokuStrategy{tenkanPeriod: 9, kijunPeriod: 26, senkouB: 52, displacement: 26}
}

func (s *IchimokuStrategy) Name() string { return "ichimoku" }

func (s *IchimokuStrategy) Description() string {
	return "Ichimoku cloud composite (TK cross, cloud position, chikou)"
}

// SetTenkanPeriod updates the conversion line period. Values outside
// [2,100] or at or above the kijun period are ignored.
func (s *IchimokuStrategy) SetTenkanPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 || n >= s.kijunPeriod {
		return
	}
	s.tenkanPeriod = n
}

// SetKijunPeriod updates the base line period. Values outside [2,200],
// at or below tenkan, or at or above senkou B, are ignored.
func (s *IchimokuStrategy) SetKijunPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 200 || n <= s.tenkanPeriod || n >= s.senkouB {
		return
	}
	s.kijunPeriod = n
}

// SetSenkouBPeriod updates the leading span B period. Values outside
// [2,400] or at or below kijun are ignored.
func (s *IchimokuStrategy) SetSenkouBPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 400 || n <= s.kijunPeriod {
		return
	}
	s.senkouB = n
}

// SetDisplacement updates the cloud/chikou offset. Values outside [1,100]
// are ignored.
func (s *IchimokuStrategy) SetDisplacement(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > 100 {
		return
	}
	s.displacement = n
}

func (s *IchimokuStrategy) params() (int, int, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenkanPeriod, s.kijunPeriod, s.senkouB, s.displacement
}

func (s *IchimokuStrategy) RequiredCandles() int {
	_, _, senkouB, displacement := s.params()
	return senkouB + displacement + 2
}

func (s *IchimokuStrategy) Signal(candles []model.Candle) model.StrategySignal {
	tenkanP, kijunP, senkouBP, displacement := s.params()

	if len(candles) < s.RequiredCandles() {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	highs := model.Highs(candles)
	lows := model.Lows(candles)
	closes := model.Closes(candles)

	ich := indicator.Ichimoku(highs, lows, closes, tenkanP, kijunP, senkouBP, displacement)
	if len(ich.Tenkan) < 2 || len(ich.Kijun) < 2 ||
		len(ich.SenkouA) == 0 || len(ich.SenkouB) == 0 {
		return momentumFallback(s.Name(), candles, "fallback (ichimoku unavailable)")
	}

	price := closes[len(closes)-1]
	tenkan := ich.Tenkan[len(ich.Tenkan)-1]
	tenkanPrev := ich.Tenkan[len(ich.Tenkan)-2]
	kijun := ich.Kijun[len(ich.Kijun)-1]
	kijunPrev := ich.Kijun[len(ich.Kijun)-2]
	spanA := ich.SenkouA[len(ich.SenkouA)-1]
	spanB := ich.SenkouB[len(ich.SenkouB)-1]

	cloudTop := math.Max(spanA, spanB)
	cloudBot := math.Min(spanA, spanB)

	score := 0.0

	// TK cross carries the most weight.
	if tenkanPrev <= kijunPrev && tenkan > kijun {
		score += 0.3
	} else if tenkanPrev >= kijunPrev && tenkan < kijun {
		score -= 0.3
	} else if tenkan > kijun {
		score += 0.1
	} else if tenkan < kijun {
		score -= 0.1
	}

	// Price relative to the cloud.
	if price > cloudTop {
		score += 0.25
	} else if price < cloudBot {
		score -= 0.25
	}

	// Cloud colour.
	if spanA > spanB {
		score += 0.2
	} else if spanA < spanB {
		score -= 0.2
	}

	// Chikou vs price displacement candles back.
	if len(ich.Chikou) > 0 && len(closes) > displacement {
		chikou := ich.Chikou[len(ich.Chikou)-1]
		past := closes[len(closes)-1-displacement]
		if chikou > past {
			score += 0.15
		} else if chikou < past {
			score -= 0.15
		}
	}

	// Price vs kijun.
	if price > kijun {
		score += 0.1
	} else if price < kijun {
		score -= 0.1
	}

	conf := math.Min(0.95, math.Abs(score))
	if conf < 0.3 {
		return model.NewSignal(s.Name(), model.Hold, conf,
			fmt.Sprintf("mixed cloud picture, score %.2f", score))
	}
	if score > 0 {
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("bullish cloud alignment, score %.2f", score))
	}
	return model.NewSignal(s.Name(), model.Sell, conf,
		fmt.Sprintf("bearish cloud alignment, score %.2f", score))
}
