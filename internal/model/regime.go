package model

// RegimeState is the qualitative market-condition classification.
type RegimeState string

const (
	RegimeTrending RegimeState = "TRENDING"
	RegimeRanging  RegimeState = "RANGING"
	RegimeVolatile RegimeState = "VOLATILE"
)

// TrendDirection qualifies a trending regime.
type TrendDirection string

const (
	TrendBullish TrendDirection = "BULLISH"
	TrendBearish TrendDirection = "BEARISH"
)

// MarketRegime characterizes current market conditions. Derived, never
// persisted; recomputed on every Detect call.
type MarketRegime struct {
	State         RegimeState    `json:"state"`
	Direction     TrendDirection `json:"direction,omitempty"` // set only when State == TRENDING
	Volatility    float64        `json:"volatility"`          // ATR / last close
	TrendSlope    float64        `json:"trend_slope"`         // least-squares slope over the window
	TrendStrength float64        `json:"trend_strength"`      // R² of the regression, in [0,1]
}
