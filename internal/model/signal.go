package model

import (
	"encoding/json"
	"math"
	"time"
)

// Direction is the directional call a strategy makes.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Hold Direction = "HOLD"
)

// StrategySignal is the output of a single strategy evaluation.
// Confidence is clamped to [0,1] at construction, so no unclamped value
// may propagate into aggregation.
type StrategySignal struct {
	Strategy   string    `json:"strategy"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"` // always in [0,1]
	Reason     string    `json:"reason"`
	TS         time.Time `json:"ts"`
}

// NewSignal builds a StrategySignal with the confidence clamped to [0,1].
// NaN and infinite confidences collapse to 0.
func NewSignal(strategy string, dir Direction, confidence float64, reason string) StrategySignal {
	return StrategySignal{
		Strategy:   strategy,
		Direction:  dir,
		Confidence: Clamp01(confidence),
		Reason:     reason,
		TS:         time.Now().UTC(),
	}
}

// Clamp01 clamps v to [0,1]. NaN and ±Inf collapse to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VoteBreakdown counts one vote per strategy per direction.
type VoteBreakdown struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
	Hold int `json:"hold"`
}

// Total returns the total number of votes cast.
func (v VoteBreakdown) Total() int { return v.Buy + v.Sell + v.Hold }

// EnsembleSignal is the combined decision produced from multiple strategies'
// individual signals. It is the primary output consumed by execution layers.
type EnsembleSignal struct {
	Symbol                 string        `json:"symbol"`
	Direction              Direction     `json:"direction"`
	Confidence             float64       `json:"confidence"`
	Reason                 string        `json:"reason"`
	ContributingStrategies []string      `json:"contributing_strategies"`
	Votes                  VoteBreakdown `json:"votes"`
	TS                     time.Time     `json:"ts"`
}

// JSON returns the JSON-encoded ensemble signal.
func (s *EnsembleSignal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

// StreamKey returns the Redis stream key for published ensemble signals:
// "signals:{symbol}".
func (s *EnsembleSignal) StreamKey() string {
	return "signals:" + s.Symbol
}
