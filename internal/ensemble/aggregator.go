// Package ensemble combines per-strategy signals into a single portfolio
// signal under a configurable aggregation policy.
package ensemble

import (
	"fmt"
	"math"
	"time"

	"signal-enginev1/internal/model"
)

// Policy selects how strategy signals are combined.
type Policy string

const (
	// PolicyWeighted accumulates confidence-times-weight per direction and
	// picks the heaviest bucket.
	PolicyWeighted Policy = "weighted"
	// PolicyVote counts directions and scores the majority by vote purity.
	PolicyVote Policy = "vote"
)

// Config tunes the aggregator. Zero fields fall back to defaults.
type Config struct {
	Policy        Policy
	MinCandles    int     // hard floor before any non-hold ensemble signal
	MinConfidence float64 // vote-policy confidence band, lower edge
	MaxConfidence float64 // vote-policy confidence band, upper edge
}

// DefaultConfig returns the weighted policy with a 50-candle floor and a
// 0.55..0.90 vote confidence band.
func DefaultConfig() Config {
	return Config{
		Policy:        PolicyWeighted,
		MinCandles:    50,
		MinConfidence: 0.55,
		MaxConfidence: 0.90,
	}
}

// Input pairs a strategy signal with the weight assigned to its strategy.
type Input struct {
	Signal model.StrategySignal
	Weight float64
}

// Aggregator combines strategy signals into ensemble signals. It holds no
// per-symbol state; one instance can serve any number of symbols.
type Aggregator struct {
	cfg Config
}

// New creates an aggregator, normalizing zero config fields to defaults.
func New(cfg Config) *Aggregator {
	def := DefaultConfig()
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = def.MinCandles
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.MaxConfidence <= 0 || cfg.MaxConfidence > 1 || cfg.MaxConfidence < cfg.MinConfidence {
		cfg.MaxConfidence = def.MaxConfidence
	}
	return &Aggregator{cfg: cfg}
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// Aggregate combines the inputs into one ensemble signal for symbol.
// candleCount is the window size the signals were computed from; below the
// configured floor the ensemble always holds.
func (a *Aggregator) Aggregate(symbol string, inputs []Input, candleCount int) model.EnsembleSignal {
	now := time.Now()

	if len(inputs) == 0 {
		return model.EnsembleSignal{
			Symbol:                 symbol,
			Direction:              model.Hold,
			Confidence:             0,
			Reason:                 "no active strategies",
			ContributingStrategies: []string{},
			TS:                     now,
		}
	}

	votes := model.VoteBreakdown{}
	for _, in := range inputs {
		switch in.Signal.Direction {
		case model.Buy:
			votes.Buy++
		case model.Sell:
			votes.Sell++
		default:
			votes.Hold++
		}
	}

	if candleCount < a.cfg.MinCandles {
		return model.EnsembleSignal{
			Symbol:                 symbol,
			Direction:              model.Hold,
			Confidence:             0,
			Reason:                 fmt.Sprintf("warming up: %d of %d candles", candleCount, a.cfg.MinCandles),
			ContributingStrategies: []string{},
			Votes:                  votes,
			TS:                     now,
		}
	}

	var out model.EnsembleSignal
	switch a.cfg.Policy {
	case PolicyVote:
		out = a.aggregateVote(inputs, votes)
	default:
		out = a.aggregateWeighted(inputs, votes)
	}
	out.Symbol = symbol
	out.TS = now
	return out
}

// aggregateWeighted accumulates confidence * weight per direction and picks
// the heaviest bucket, normalizing confidence by total weight. Ties break
// buy over sell over hold.
func (a *Aggregator) aggregateWeighted(inputs []Input, votes model.VoteBreakdown) model.EnsembleSignal {
	scores := map[model.Direction]float64{}
	var totalWeight float64
	for _, in := range inputs {
		w := in.Weight
		if w < 0 {
			w = 0
		}
		scores[in.Signal.Direction] += in.Signal.Confidence * w
		totalWeight += w
	}

	if totalWeight <= 0 {
		return model.EnsembleSignal{
			Direction:              model.Hold,
			Confidence:             0,
			Reason:                 "all strategy weights zero",
			ContributingStrategies: []string{},
			Votes:                  votes,
		}
	}

	winner := model.Hold
	best := math.Inf(-1)
	for _, dir := range []model.Direction{model.Buy, model.Sell, model.Hold} {
		if s := scores[dir]; s > best {
			winner = dir
			best = s
		}
	}

	conf := model.Clamp01(best / totalWeight)
	return model.EnsembleSignal{
		Direction:  winner,
		Confidence: conf,
		Reason: fmt.Sprintf("weighted scores buy %.3f / sell %.3f / hold %.3f over weight %.2f",
			scores[model.Buy], scores[model.Sell], scores[model.Hold], totalWeight),
		ContributingStrategies: contributors(inputs, winner),
		Votes:                  votes,
	}
}

// aggregateVote picks the direction with the most votes (buy over sell over
// hold on ties) and scores it by vote purity blended with the winners'
// weighted average confidence, clamped into the configured band.
func (a *Aggregator) aggregateVote(inputs []Input, votes model.VoteBreakdown) model.EnsembleSignal {
	winner := model.Buy
	best := votes.Buy
	if votes.Sell > best {
		winner = model.Sell
		best = votes.Sell
	}
	if votes.Hold > best {
		winner = model.Hold
		best = votes.Hold
	}

	total := votes.Total()
	purity := float64(best) / float64(total)

	var confSum, weightSum float64
	for _, in := range inputs {
		if in.Signal.Direction != winner {
			continue
		}
		w := in.Weight
		if w < 0 {
			w = 0
		}
		confSum += in.Signal.Confidence * w
		weightSum += w
	}
	avgConf := 0.0
	if weightSum > 0 {
		avgConf = confSum / weightSum
	}

	conf := purity*0.6 + avgConf*0.4
	if conf < a.cfg.MinConfidence {
		conf = a.cfg.MinConfidence
	}
	if conf > a.cfg.MaxConfidence {
		conf = a.cfg.MaxConfidence
	}

	return model.EnsembleSignal{
		Direction:  winner,
		Confidence: conf,
		Reason: fmt.Sprintf("vote %d/%d for %s (purity %.2f, avg conf %.2f)",
			best, total, winner, purity, avgConf),
		ContributingStrategies: contributors(inputs, winner),
		Votes:                  votes,
	}
}

// contributors lists, in input order, the strategies that signaled the
// winning direction.
func contributors(inputs []Input, dir model.Direction) []string {
	out := []string{}
	for _, in := range inputs {
		if in.Signal.Direction == dir {
			out = append(out, in.Signal.Strategy)
		}
	}
	return out
}
