package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// MACDStrategy signals on the MACD line crossing its signal line between the
// last two candles. Confidence scales with the histogram magnitude relative
// to price.
type MACDStrategy struct {
	mu           sync.RWMutex
	fastPeriod   int // valid range [2,100], < slowPeriod
	slowPeriod   int // valid range [3,200], > fastPeriod
	signalPeriod int // valid range [2,100]
}

// NewMACDStrategy creates the strategy with the standard 12/26/9 parameters.
func NewMACDStrategy() *MACDStrategy {
	return &MACDStrategy{fastPeriod: 12, slowPeriod: 26, signalPeriod: 9}
}

func (s *MACDStrategy) Name() string { return "macd" }

func (s *MACDStrategy) Description() string {
	return "MACD/signal-line crossover momentum"
}

// SetFastPeriod updates the fast EMA period. Invalid values are ignored.
func (s *MACDStrategy) SetFastPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 || n >= s.slowPeriod {
		return
	}
	s.fastPeriod = n
}

// SetSlowPeriod updates the slow EMA period. Invalid values are ignored.
func (s *MACDStrategy) SetSlowPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 3 || n > 200 || n <= s.fastPeriod {
		return
	}
	s.slowPeriod = n
}

// SetSignalPeriod updates the signal EMA period. Valid range [2,100].
func (s *MACDStrategy) SetSignalPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 100 {
		return
	}
	s.signalPeriod = n
}

func (s *MACDStrategy) params() (int, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fastPeriod, s.slowPeriod, s.signalPeriod
}

// RequiredCandles covers the slow EMA seed, the signal EMA seed, and one
// extra point for cross detection.
func (s *MACDStrategy) RequiredCandles() int {
	_, slow, sig := s.params()
	return slow + sig + 1
}

func (s *MACDStrategy) Signal(candles []model.Candle) model.StrategySignal {
	fast, slow, sigPeriod := s.params()

	if len(candles) < s.RequiredCandles() {
		return trendFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	closes := model.Closes(candles)
	res := indicator.MACD(closes, fast, slow, sigPeriod)
	if len(res.Signal) < 2 || len(res.Histogram) < 2 {
		return momentumFallback(s.Name(), candles, "fallback (macd unavailable)")
	}

	lastClose := closes[len(closes)-1]
	currHist := res.Histogram[len(res.Histogram)-1]
	prevHist := res.Histogram[len(res.Histogram)-2]

	// A histogram sign change is the MACD line crossing the signal line.
	// Full confidence when the histogram reaches 0.5% of price.
	conf := 0.0
	if lastClose != 0 {
		conf = math.Min(1, math.Abs(currHist)/(0.005*math.Abs(lastClose)))
	}

	if prevHist <= 0 && currHist > 0 {
		return model.NewSignal(s.Name(), model.Buy, conf,
			fmt.Sprintf("MACD crossed above signal (histogram %.6f)", currHist))
	}
	if prevHist >= 0 && currHist < 0 {
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("MACD crossed below signal (histogram %.6f)", currHist))
	}

	side := "above"
	if currHist < 0 {
		side = "below"
	}
	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, conf),
		fmt.Sprintf("no crossover, MACD %s signal (histogram %.6f)", side, currHist))
}
