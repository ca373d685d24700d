// Package engine orchestrates one evaluation pass: every enabled strategy
// over the candle window, a regime classification, and the ensemble
// aggregation of the results. Engines are plain values created by callers;
// several can coexist with independent strategy sets.
package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"signal-enginev1/internal/ensemble"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/regime"
	"signal-enginev1/internal/strategy"
)

// Result is the outcome of one evaluation pass.
type Result struct {
	Signals  []model.StrategySignal
	Regime   model.MarketRegime
	Ensemble model.EnsembleSignal
}

// StrategyStatus describes one registered strategy slot.
type StrategyStatus struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Weight          float64 `json:"weight"`
	Enabled         bool    `json:"enabled"`
	RequiredCandles int     `json:"required_candles"`
}

type slot struct {
	strategy strategy.Strategy
	weight   float64
	enabled  bool
}

// Engine evaluates a strategy set over candle windows. Strategies run in
// registration order.
type Engine struct {
	mu       sync.RWMutex
	slots    []*slot
	byName   map[string]*slot
	detector *regime.Detector
	agg      *ensemble.Aggregator
	metrics  *metrics.Metrics // nil disables instrumentation
}

// New creates an empty engine. A nil detector or aggregator falls back to
// defaults; metrics may be nil.
func New(det *regime.Detector, agg *ensemble.Aggregator, m *metrics.Metrics) *Engine {
	if det == nil {
		det = regime.NewDetector()
	}
	if agg == nil {
		agg = ensemble.New(ensemble.DefaultConfig())
	}
	return &Engine{
		byName:   map[string]*slot{},
		detector: det,
		agg:      agg,
		metrics:  m,
	}
}

// NewDefault creates an engine with every known strategy registered at
// weight 1.0.
func NewDefault(m *metrics.Metrics) *Engine {
	e := New(nil, nil, m)
	for _, s := range strategy.Defaults() {
		e.Register(s, 1.0)
	}
	return e
}

// Register adds a strategy at the end of the evaluation order. Duplicate
// names and negative weights are rejected.
func (e *Engine) Register(s strategy.Strategy, weight float64) error {
	if s == nil {
		return fmt.Errorf("nil strategy")
	}
	if weight < 0 {
		return fmt.Errorf("negative weight %v for %q", weight, s.Name())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.byName[s.Name()]; dup {
		return fmt.Errorf("strategy %q already registered", s.Name())
	}
	sl := &slot{strategy: s, weight: weight, enabled: true}
	e.slots = append(e.slots, sl)
	e.byName[s.Name()] = sl
	return nil
}

// SetStrategyEnabled toggles a strategy in or out of evaluation.
func (e *Engine) SetStrategyEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sl, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("unknown strategy %q", name)
	}
	sl.enabled = enabled
	return nil
}

// SetStrategyWeight updates a strategy's ensemble weight. Negative weights
// are rejected.
func (e *Engine) SetStrategyWeight(name string, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("negative weight %v for %q", weight, name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sl, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("unknown strategy %q", name)
	}
	sl.weight = weight
	return nil
}

// Strategies reports the registered slots in evaluation order.
func (e *Engine) Strategies() []StrategyStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]StrategyStatus, 0, len(e.slots))
	for _, sl := range e.slots {
		out = append(out, StrategyStatus{
			Name:            sl.strategy.Name(),
			Description:     sl.strategy.Description(),
			Weight:          sl.weight,
			Enabled:         sl.enabled,
			RequiredCandles: sl.strategy.RequiredCandles(),
		})
	}
	return out
}

// Evaluate runs every enabled strategy over the window, classifies the
// regime, and aggregates the results into one ensemble signal.
func (e *Engine) Evaluate(symbol string, candles []model.Candle) Result {
	start := time.Now()

	e.mu.RLock()
	active := make([]*slot, 0, len(e.slots))
	for _, sl := range e.slots {
		if sl.enabled {
			active = append(active, sl)
		}
	}
	e.mu.RUnlock()

	res := Result{
		Signals: make([]model.StrategySignal, 0, len(active)),
		Regime:  e.detector.Detect(candles),
	}

	inputs := make([]ensemble.Input, 0, len(active))
	for _, sl := range active {
		sig := sl.strategy.Signal(candles)
		res.Signals = append(res.Signals, sig)
		inputs = append(inputs, ensemble.Input{Signal: sig, Weight: sl.weight})

		if e.metrics != nil {
			e.metrics.StrategySignalsTotal.WithLabelValues(sig.Strategy, string(sig.Direction)).Inc()
			if strings.HasPrefix(sig.Reason, "fallback") {
				e.metrics.FallbacksTotal.WithLabelValues(sig.Strategy).Inc()
			}
		}
	}

	res.Ensemble = e.agg.Aggregate(symbol, inputs, len(candles))

	if e.metrics != nil {
		e.metrics.EvaluationsTotal.Inc()
		e.metrics.EvaluationDur.Observe(time.Since(start).Seconds())
		e.metrics.EnsembleSignalsTotal.WithLabelValues(string(res.Ensemble.Direction)).Inc()
		e.metrics.EnsembleConfidence.Observe(res.Ensemble.Confidence)
		e.metrics.RegimeState.WithLabelValues(symbol).Set(regimeGaugeValue(res.Regime.State))
		e.metrics.Volatility.WithLabelValues(symbol).Set(res.Regime.Volatility)
		if strings.HasPrefix(res.Ensemble.Reason, "warming up") {
			e.metrics.WarmupHolds.Inc()
		}
	}
	return res
}

func regimeGaugeValue(state model.RegimeState) float64 {
	switch state {
	case model.RegimeTrending:
		return 1
	case model.RegimeVolatile:
		return 2
	default:
		return 0
	}
}
