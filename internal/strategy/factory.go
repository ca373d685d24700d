package strategy

import "fmt"

// constructors maps strategy names to their default constructors.
var constructors = map[string]func() Strategy{
	"ema_crossover":   func() Strategy { return NewEMACrossover() },
	"macd":            func() Strategy { return NewMACDStrategy() },
	"parabolic_sar":   func() Strategy { return NewParabolicSARStrategy() },
	"ichimoku":        func() Strategy { return NewIchimokuStrategy() },
	"swing_composite": func() Strategy { return NewSwingComposite() },
	"rsi":             func() Strategy { return NewRSIStrategy() },
	"stochastic":      func() Strategy { return NewStochasticStrategy() },
	"williams_r":      func() Strategy { return NewWilliamsRStrategy() },
	"bollinger":       func() Strategy { return NewBollingerStrategy() },
	"mean_reversion":  func() Strategy { return NewMeanReversion() },
	"atr_breakout":    func() Strategy { return NewATRBreakout() },
	"grid_trading":    func() Strategy { return NewGridTrading() },
	"volume_spike":    func() Strategy { return NewVolumeSpike() },
	"vwap_reversion":  func() Strategy { return NewVWAPReversion() },
}

// defaultOrder fixes the evaluation order used by Defaults: trend families
// first, then oscillators, volatility and volume.
var defaultOrder = []string{
	"ema_crossover",
	"macd",
	"parabolic_sar",
	"ichimoku",
	"swing_composite",
	"rsi",
	"stochastic",
	"williams_r",
	"bollinger",
	"mean_reversion",
	"atr_breakout",
	"grid_trading",
	"volume_spike",
	"vwap_reversion",
}

// New creates a strategy by name with default parameters.
func New(name string) (Strategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	return ctor(), nil
}

// Names returns the known strategy names in the default evaluation order.
func Names() []string {
	out := make([]string, len(defaultOrder))
	copy(out, defaultOrder)
	return out
}

// Defaults constructs one of every strategy with default parameters, in a
// fixed evaluation order.
func Defaults() []Strategy {
	out := make([]Strategy, 0, len(defaultOrder))
	for _, name := range defaultOrder {
		out = append(out, constructors[name]())
	}
	return out
}
