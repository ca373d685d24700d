// Package regime classifies recent market conditions into trending, ranging
// or volatile states so the ensemble can weight strategy families to match.
package regime

import (
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// Detector derives a MarketRegime from a candle window using normalized ATR
// for volatility and a linear regression fit for trend.
type Detector struct {
	mu                  sync.RWMutex
	atrPeriod           int     // valid range [2, 100]
	regressionWindow    int     // valid range [5, 500]
	volatilityThreshold float64 // valid range (0, 1]; normalized ATR above this is VOLATILE
	trendStrength       float64 // valid range (0, 1); R-squared above this is TRENDING
}

// NewDetector creates a detector with ATR(14), a 20-candle regression, a 2%
// volatility ceiling and a 0.5 trend fit floor.
func NewDetector() *Detector {
	return &Detector{
		atrPeriod:           14,
		regressionWindow:    20,
		volatilityThreshold: 0.02,
		trendStrength:       0.5,
	}
}

// SetVolatilityThreshold updates the normalized ATR ceiling. Values outside
// (0,1] are ignored.
func (d *Detector) SetVolatilityThreshold(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v <= 0 || v > 1 {
		return
	}
	d.volatilityThreshold = v
}

// SetTrendStrength updates the R-squared floor for the trending state.
// Values outside (0,1) are ignored.
func (d *Detector) SetTrendStrength(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v <= 0 || v >= 1 {
		return
	}
	d.trendStrength = v
}

func (d *Detector) params() (int, int, float64, float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.atrPeriod, d.regressionWindow, d.volatilityThreshold, d.trendStrength
}

// RequiredCandles reports the minimum window for a full classification.
func (d *Detector) RequiredCandles() int {
	atrP, regW, _, _ := d.params()
	n := atrP + 1
	if regW > n {
		n = regW
	}
	return n
}

// Detect classifies the window. Short windows default to RANGING with zero
// readings rather than erroring.
func (d *Detector) Detect(candles []model.Candle) model.MarketRegime {
	atrP, regW, volThreshold, trendFloor := d.params()

	out := model.MarketRegime{State: model.RegimeRanging, Direction: model.TrendBullish}
	if len(candles) == 0 {
		return out
	}

	lastClose := candles[len(candles)-1].Close
	if len(candles) >= atrP+1 && lastClose > 0 {
		atr := indicator.ATR(candles, atrP)
		if len(atr) > 0 {
			out.Volatility = atr[len(atr)-1] / lastClose
		}
	}

	closes := model.Closes(candles)
	if len(closes) > regW {
		closes = closes[len(closes)-regW:]
	}
	if len(closes) >= 2 {
		reg := indicator.LinearRegression(closes)
		out.TrendSlope = reg.Slope
		out.TrendStrength = reg.Strength
		if reg.Slope < 0 {
			out.Direction = model.TrendBearish
		}
	}

	switch {
	case out.Volatility > volThreshold:
		out.State = model.RegimeVolatile
	case out.TrendStrength > trendFloor && math.Abs(out.TrendSlope) > 0:
		out.State = model.RegimeTrending
	default:
		out.State = model.RegimeRanging
	}
	return out
}

// RecommendedStrategies maps a regime state to the strategy families that
// historically work in it.
func RecommendedStrategies(r model.MarketRegime) []string {
	switch r.State {
	case model.RegimeTrending:
		return []string{"ema_crossover", "macd", "parabolic_sar", "ichimoku", "swing_composite", "atr_breakout"}
	case model.RegimeVolatile:
		return []string{"atr_breakout", "volume_spike", "vwap_reversion"}
	default:
		return []string{"rsi", "stochastic", "williams_r", "bollinger", "mean_reversion", "grid_trading"}
	}
}
