// Package strategy implements the concrete trading strategies of the signal
// engine.
//
// A Strategy transforms a candle series into one StrategySignal. Signal never
// fails: when the series is shorter than RequiredCandles, or the primary
// indicator computation produces no usable result, the strategy degrades to a
// cheap proxy signal (price-vs-average trend, basic momentum, or volume bias
// depending on the family) with confidence capped low and a reason naming the
// fallback. Confidence is clamped to [0,1] at signal construction.
//
// Strategies are long-lived: tunable parameters mutate over the process
// lifetime through validated setters and are read under an RWMutex, so
// configuration updates and signal evaluation can run concurrently.
// Out-of-range parameter updates are ignored, keeping the last valid value.
package strategy

import (
	"fmt"
	"math"

	"signal-enginev1/internal/model"
)

// Strategy is the interface all trading strategies implement.
type Strategy interface {
	// Name returns the unique, stable strategy identifier (e.g. "ema_crossover").
	Name() string

	// Description returns a short human-readable summary of the algorithm.
	Description() string

	// RequiredCandles returns the minimum candle count for the primary
	// computation. It is non-decreasing in each period parameter.
	RequiredCandles() int

	// Signal evaluates the candle series and always returns a signal.
	Signal(candles []model.Candle) model.StrategySignal
}

const (
	// Degraded-path signals are capped well below primary-path confidence.
	fallbackMaxConfidence = 0.35

	// fallbackWindow is the trailing window the cheap proxies look at.
	fallbackWindow = 10
)

// capFallback limits a degraded-path confidence to the fallback ceiling.
func capFallback(conf float64) float64 {
	return math.Min(conf, fallbackMaxConfidence)
}

// trendFallback is the cheap proxy for trend and mean-reversion families:
// recent price vs the trailing-window average.
func trendFallback(name string, candles []model.Candle, cause string) model.StrategySignal {
	if len(candles) == 0 {
		return model.NewSignal(name, model.Hold, 0, cause+": no candles")
	}

	window := fallbackWindow
	if len(candles) < window {
		window = len(candles)
	}
	closes := model.Closes(candles[len(candles)-window:])
	var sum float64
	for _, c := range closes {
		sum += c
	}
	avg := sum / float64(len(closes))
	last := closes[len(closes)-1]
	if avg == 0 {
		return model.NewSignal(name, model.Hold, 0, cause+": flat series")
	}

	drift := (last - avg) / avg
	conf := capFallback(math.Abs(drift) * 20)
	switch {
	case drift > 0.001:
		return model.NewSignal(name, model.Buy, conf,
			fmt.Sprintf("%s: price %.4f above %d-candle average %.4f", cause, last, window, avg))
	case drift < -0.001:
		return model.NewSignal(name, model.Sell, conf,
			fmt.Sprintf("%s: price %.4f below %d-candle average %.4f", cause, last, window, avg))
	default:
		return model.NewSignal(name, model.Hold, 0.1, cause+": price near average")
	}
}

// momentumFallback is the cheap proxy for oscillator families: the last close
// vs the close a few candles back.
func momentumFallback(name string, candles []model.Candle, cause string) model.StrategySignal {
	if len(candles) < 2 {
		return model.NewSignal(name, model.Hold, 0, cause+": no candles")
	}

	lookback := 5
	if len(candles)-1 < lookback {
		lookback = len(candles) - 1
	}
	last := candles[len(candles)-1].Close
	ref := candles[len(candles)-1-lookback].Close
	if ref == 0 {
		return model.NewSignal(name, model.Hold, 0, cause+": flat series")
	}

	change := (last - ref) / ref
	conf := capFallback(math.Abs(change) * 15)
	switch {
	case change > 0.002:
		return model.NewSignal(name, model.Buy, conf,
			fmt.Sprintf("%s: momentum +%.2f%% over %d candles", cause, change*100, lookback))
	case change < -0.002:
		return model.NewSignal(name, model.Sell, conf,
			fmt.Sprintf("%s: momentum %.2f%% over %d candles", cause, change*100, lookback))
	default:
		return model.NewSignal(name, model.Hold, 0.1, cause+": momentum flat")
	}
}

// volumeFallback is the cheap proxy for the volume family: the last candle's
// volume vs the trailing average, signed by the candle's price direction.
func volumeFallback(name string, candles []model.Candle, cause string) model.StrategySignal {
	if len(candles) == 0 {
		return model.NewSignal(name, model.Hold, 0, cause+": no candles")
	}

	window := fallbackWindow
	if len(candles) < window {
		window = len(candles)
	}
	tail := candles[len(candles)-window:]
	var sumVol float64
	for _, c := range tail {
		sumVol += c.Volume
	}
	avgVol := sumVol / float64(len(tail))
	last := tail[len(tail)-1]
	if avgVol == 0 {
		return model.NewSignal(name, model.Hold, 0, cause+": no volume")
	}

	ratio := last.Volume / avgVol
	if ratio < 1.2 {
		return model.NewSignal(name, model.Hold, 0.1, cause+": volume unremarkable")
	}

	conf := capFallback(0.15 + (ratio-1.2)*0.1)
	if last.Close >= last.Open {
		return model.NewSignal(name, model.Buy, conf,
			fmt.Sprintf("%s: elevated volume %.1fx on up candle", cause, ratio))
	}
	return model.NewSignal(name, model.Sell, conf,
		fmt.Sprintf("%s: elevated volume %.1fx on down candle", cause, ratio))
}

// crossoverConfidence scales confidence with the normalized gap between two
// crossing series: min(1, |fast-slow|/slow * 10).
func crossoverConfidence(fast, slow float64) float64 {
	if slow == 0 {
		return 0
	}
	return math.Min(1, math.Abs(fast-slow)/math.Abs(slow)*10)
}
