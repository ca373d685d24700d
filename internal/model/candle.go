// Package model defines the data types shared across the signal engine:
// candles, strategy signals, ensemble outcomes, and market regimes.
//
// Values of these types are immutable once produced; evaluation code
// creates fresh instances on every call and never mutates them.
package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV sample for a fixed time bucket.
// Candle series are ordered ascending by OpenTime with no duplicate timestamps.
type Candle struct {
	Symbol   string    `json:"symbol"`
	OpenTime time.Time `json:"open_time"` // bucket start time (UTC)
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// StreamKey returns the Redis stream key for this candle's symbol: "candles:{symbol}".
func (c *Candle) StreamKey() string {
	return "candles:" + c.Symbol
}

// Closes extracts the close prices from a candle series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// Highs extracts the high prices from a candle series.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].High
	}
	return out
}

// Lows extracts the low prices from a candle series.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Low
	}
	return out
}

// Volumes extracts the volumes from a candle series.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Volume
	}
	return out
}
