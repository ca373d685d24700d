// Package sigengine is the signal engine microservice: it consumes candles
// from Redis Streams, maintains per-symbol rolling windows, evaluates the
// strategy ensemble on every closed candle, and publishes the resulting
// signals to Redis while journaling them to SQLite.
package sigengine

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"signal-enginev1/internal/engine"
	"signal-enginev1/internal/ensemble"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/regime"
	"signal-enginev1/internal/session"
	redisstore "signal-enginev1/internal/store/redis"
	sqlitestore "signal-enginev1/internal/store/sqlite"
	"signal-enginev1/internal/strategy"
	"signal-enginev1/internal/window"
)

// Service is the top-level orchestrator for the signal engine.
// It wires all dependencies, manages lifecycle, and coordinates goroutines.
type Service struct {
	cfg Config

	engine      *engine.Engine
	redisReader *redisstore.Reader
	redisWriter *redisstore.Writer
	sqlReader   *sqlitestore.Reader
	sqlWriter   *sqlitestore.Writer
	prom        *metrics.Metrics
	health      *metrics.HealthStatus

	cal *session.Calendar

	windows         map[string]*window.Window
	streams         []string
	candleCh        chan model.Candle
	candleJournalCh chan model.Candle
	journalCh       chan sqlitestore.JournalEntry
	signalCh        chan model.EnsembleSignal
}

// New creates a new Service from the given Config.
// It connects to Redis and SQLite and builds the strategy engine.
func New(cfg Config) (*Service, error) {
	svc := &Service{
		cfg:             cfg,
		prom:            metrics.NewMetrics(),
		health:          metrics.NewHealthStatus(),
		windows:         map[string]*window.Window{},
		candleCh:        make(chan model.Candle, 5000),
		candleJournalCh: make(chan model.Candle, 5000),
		journalCh:       make(chan sqlitestore.JournalEntry, 1000),
		signalCh:        make(chan model.EnsembleSignal, 1000),
	}

	switch cfg.SessionCalendar {
	case "nse":
		svc.cal = session.NSE()
	default:
		svc.cal = session.Always()
	}

	// ---- Build the engine ----
	eng, err := buildEngine(cfg, svc.prom)
	if err != nil {
		return nil, err
	}
	svc.engine = eng

	// ---- Connect to Redis ----
	svc.redisReader, err = redisstore.NewReader(redisstore.ReaderConfig{
		Addr:          cfg.RedisAddr,
		Password:      cfg.RedisPassword,
		ConsumerGroup: cfg.ConsumerGroup,
		ConsumerName:  cfg.ConsumerName,
	})
	if err != nil {
		return nil, err
	}

	svc.redisWriter, err = redisstore.New(redisstore.WriterConfig{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		PublishDur: svc.prom.RedisPublishDur,
	})
	if err != nil {
		svc.redisReader.Close()
		return nil, err
	}

	// ---- Open SQLite ----
	os.MkdirAll("data", 0o755)
	svc.sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{
		DBPath:    cfg.SQLitePath,
		CommitDur: svc.prom.SQLiteCommitDur,
		BatchSize: svc.prom.JournalBatchSize,
	})
	if err != nil {
		log.Printf("[sigengine] WARNING: sqlite writer init failed: %v (continuing without journal)", err)
	}

	svc.sqlReader, err = sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Printf("[sigengine] WARNING: sqlite reader init failed: %v (continuing without backfill)", err)
	}

	return svc, nil
}

// buildEngine constructs the strategy engine from config: the configured
// strategy subset with weights, or the full default set.
func buildEngine(cfg Config, prom *metrics.Metrics) (*engine.Engine, error) {
	det := regime.NewDetector()
	det.SetVolatilityThreshold(cfg.VolatilityThreshold)

	agg := ensemble.New(ensemble.Config{
		Policy:        cfg.EnsemblePolicy,
		MinCandles:    cfg.MinCandles,
		MinConfidence: cfg.MinConfidence,
		MaxConfidence: cfg.MaxConfidence,
	})

	eng := engine.New(det, agg, prom)
	if len(cfg.Strategies) == 0 {
		for _, s := range strategy.Defaults() {
			if err := eng.Register(s, 1.0); err != nil {
				return nil, err
			}
		}
		return eng, nil
	}

	for _, spec := range cfg.Strategies {
		s, err := strategy.New(spec.Name)
		if err != nil {
			log.Printf("[sigengine] skipping unknown strategy %q", spec.Name)
			continue
		}
		if err := eng.Register(s, spec.Weight); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// Run starts all subsystems and blocks until ctx is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	cfg := svc.cfg
	log.Println("[sigengine] starting Signal Engine microservice...")

	// ---- Build streams ----
	svc.streams = svc.buildStreams()
	log.Printf("[sigengine] consuming from %d streams: %v", len(svc.streams), svc.streams)
	log.Printf("[sigengine] session calendar: %s (%s)", cfg.SessionCalendar, svc.cal.Status(time.Now()))

	// ---- Warm windows from SQLite ----
	svc.backfillWindows()

	// ---- Ensure consumer groups ----
	if len(svc.streams) > 0 {
		if err := svc.redisReader.EnsureConsumerGroup(ctx, svc.streams); err != nil {
			log.Printf("[sigengine] WARNING: consumer group setup: %v", err)
		}
		if err := svc.redisReader.RecoverPending(ctx, svc.streams, svc.candleCh); err != nil {
			log.Printf("[sigengine] pending recovery error: %v", err)
		}
	}

	// ---- Start subsystems ----
	svc.startPELReclaimer(ctx)
	go svc.processLoop(ctx)
	svc.startConsumer(ctx)
	if svc.sqlWriter != nil {
		go svc.sqlWriter.Run(ctx, svc.candleJournalCh)
		go svc.sqlWriter.RunJournal(ctx, svc.journalCh)
	}
	go svc.redisWriter.Run(ctx, svc.signalCh)
	svc.startHTTP(ctx)
	svc.startConfigSubscriber(ctx)

	// ---- Health + metrics server ----
	svc.health.SetEngineOK(true)
	svc.health.SetSymbols(cfg.Symbols)
	var sqlDB *sql.DB
	if svc.sqlWriter != nil {
		sqlDB = svc.sqlWriter.DB()
	}
	svc.health.StartLivenessChecker(ctx, svc.redisWriter.Client(), sqlDB, 10*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, svc.health)
	metricsSrv.Start()

	// ---- Startup banner ----
	log.Println("[sigengine] ╔════════════════════════════════════════════════════════╗")
	log.Println("[sigengine] ║  Signal Engine Active                                  ║")
	log.Println("[sigengine] ║                                                        ║")
	log.Println("[sigengine] ║  [Redis Streams] → [Strategies] → [Ensemble] → [Redis] ║")
	log.Printf("[sigengine] ║  Policy: %-8s  Window: %-5d  Floor: %-4d          ║",
		cfg.EnsemblePolicy, cfg.WindowSize, cfg.MinCandles)
	log.Println("[sigengine] ╚════════════════════════════════════════════════════════╝")
	log.Println("[sigengine] ✅ all systems running. Press Ctrl+C to stop.")

	// Block until context cancelled
	<-ctx.Done()

	// ---- Graceful shutdown ----
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	metricsSrv.Stop(shutCtx)
	shutCancel()
	svc.shutdown()
	return nil
}

// shutdown closes connections.
func (svc *Service) shutdown() {
	log.Println("[sigengine] shutdown signal received, closing connections...")

	if svc.sqlReader != nil {
		svc.sqlReader.Close()
	}
	if svc.sqlWriter != nil {
		svc.sqlWriter.Close()
	}
	svc.redisWriter.Close()
	svc.redisReader.Close()

	log.Println("[sigengine] shutdown complete.")
}

// buildStreams constructs the Redis stream names to consume, one per symbol.
func (svc *Service) buildStreams() []string {
	streams := make([]string, 0, len(svc.cfg.Symbols))
	for _, sym := range svc.cfg.Symbols {
		streams = append(streams, "candles:"+sym)
	}
	return streams
}

// backfillWindows warms the per-symbol rolling windows from the SQLite
// candle journal so the engine does not restart cold.
func (svc *Service) backfillWindows() {
	if svc.sqlReader == nil {
		return
	}
	total := 0
	for _, sym := range svc.cfg.Symbols {
		candles, err := svc.sqlReader.ReadLastCandles(sym, svc.cfg.WindowSize)
		if err != nil {
			log.Printf("[sigengine] backfill error for %s: %v", sym, err)
			continue
		}
		w := svc.windowFor(sym)
		for _, c := range candles {
			w.Push(c)
		}
		total += len(candles)
	}
	if total > 0 {
		log.Printf("[sigengine] ✅ warmed windows with %d historical candles from SQLite", total)
	} else {
		log.Println("[sigengine] no historical candles to warm windows from")
	}
}

// windowFor returns (creating if needed) the rolling window for a symbol.
func (svc *Service) windowFor(symbol string) *window.Window {
	w, ok := svc.windows[symbol]
	if !ok {
		w = window.New(svc.cfg.WindowSize)
		svc.windows[symbol] = w
	}
	return w
}
