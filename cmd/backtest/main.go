// cmd/backtest replays historical candles from SQLite through the strategy
// engine to validate strategies and ensemble behavior without live market data.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/signals.db --symbol=NIFTY --policy=weighted
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"signal-enginev1/internal/engine"
	"signal-enginev1/internal/ensemble"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/regime"
	"signal-enginev1/internal/sigengine"
	sqlitestore "signal-enginev1/internal/store/sqlite"
	"signal-enginev1/internal/strategy"
	"signal-enginev1/internal/window"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	dbPath := flag.String("db", "data/signals.db", "Path to SQLite database")
	symbolStr := flag.String("symbol", "", "Comma-separated symbols to replay (default: all in DB)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start replay from (0=all)")
	windowSize := flag.Int("window", 256, "Rolling window capacity per symbol")
	policy := flag.String("policy", "weighted", "Ensemble policy: weighted or vote")
	minCandles := flag.Int("min-candles", 50, "Warmup floor before the ensemble emits real signals")
	minConf := flag.Float64("min-confidence", 0.60, "Minimum confidence to count a signal as actionable")
	strategiesStr := flag.String("strategies", "", "Strategy specs: name:weight,... (default: all at 1.0)")
	flag.Parse()

	// Open SQLite
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	symbols := parseSymbols(*symbolStr)
	if len(symbols) == 0 {
		symbols, err = reader.Symbols()
		if err != nil {
			log.Fatalf("[backtest] symbol discovery failed: %v", err)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("[backtest] no symbols to replay")
	}

	// Build strategy engine
	agg := ensemble.New(ensemble.Config{
		Policy:     ensemble.Policy(*policy),
		MinCandles: *minCandles,
	})
	eng := engine.New(regime.NewDetector(), agg, nil)
	if specs := sigengine.ParseStrategySpecs(*strategiesStr); len(specs) > 0 {
		for _, spec := range specs {
			s, err := strategy.New(spec.Name)
			if err != nil {
				log.Fatalf("[backtest] unknown strategy %q", spec.Name)
			}
			if err := eng.Register(s, spec.Weight); err != nil {
				log.Fatalf("[backtest] register %s: %v", spec.Name, err)
			}
		}
	} else {
		for _, s := range strategy.Defaults() {
			if err := eng.Register(s, 1.0); err != nil {
				log.Fatalf("[backtest] register %s: %v", s.Name(), err)
			}
		}
	}

	// Setup context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Replay each symbol through its own rolling window
	processed := 0
	actionable := 0
	var dirCounts = map[model.Direction]int{}
	var regimeCounts = map[model.RegimeState]int{}

	for _, sym := range symbols {
		candles, err := reader.ReadCandles(sym, *fromTS)
		if err != nil {
			log.Printf("[backtest] read %s failed: %v", sym, err)
			continue
		}
		log.Printf("[backtest] replaying %d candles for %s", len(candles), sym)

		w := window.New(*windowSize)
		for _, c := range candles {
			if ctx.Err() != nil {
				break
			}
			if !w.Push(c) {
				continue
			}
			res := eng.Evaluate(sym, w.Snapshot())
			processed++
			dirCounts[res.Ensemble.Direction]++
			regimeCounts[res.Regime.State]++
			if res.Ensemble.Direction != model.Hold && res.Ensemble.Confidence >= *minConf {
				actionable++
				if actionable <= 10 || actionable%100 == 0 {
					fmt.Printf("  [%s] %s %s conf=%.2f (%s)\n",
						c.OpenTime.Format("15:04:05"), sym,
						res.Ensemble.Direction, res.Ensemble.Confidence,
						strings.Join(res.Ensemble.ContributingStrategies, ","))
				}
			}
		}
	}

	// Print summary
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Evaluations:       %-16d ║\n", processed)
	fmt.Printf("║  Actionable:        %-16d ║\n", actionable)
	fmt.Printf("║  BUY / SELL / HOLD: %-16s ║\n",
		fmt.Sprintf("%d/%d/%d", dirCounts[model.Buy], dirCounts[model.Sell], dirCounts[model.Hold]))
	fmt.Printf("║  Regimes T/R/V:     %-16s ║\n",
		fmt.Sprintf("%d/%d/%d", regimeCounts[model.RegimeTrending], regimeCounts[model.RegimeRanging], regimeCounts[model.RegimeVolatile]))
	fmt.Println("╚══════════════════════════════════════╝")
}

func parseSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
