package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	EvaluationsTotal prometheus.Counter
	EvaluationDur    prometheus.Histogram

	// Strategy layer
	StrategySignalsTotal *prometheus.CounterVec // labels: strategy, direction
	FallbacksTotal       *prometheus.CounterVec // labels: strategy

	// Ensemble layer
	EnsembleSignalsTotal *prometheus.CounterVec // labels: direction
	EnsembleConfidence   prometheus.Histogram
	WarmupHolds          prometheus.Counter

	// Regime layer
	RegimeState *prometheus.GaugeVec // labels: symbol; 0=ranging, 1=trending, 2=volatile
	Volatility  *prometheus.GaugeVec // labels: symbol

	// Stream plumbing
	CandlesConsumed   prometheus.Counter
	StaleCandles      prometheus.Counter
	RedisPublishDur   prometheus.Histogram
	SQLiteCommitDur   prometheus.Histogram
	JournalBatchSize  prometheus.Histogram
	WindowOccupancy   *prometheus.GaugeVec // labels: symbol
	ConsumerReclaimed prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_evaluations_total",
			Help: "Total engine evaluations across all symbols",
		}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_evaluation_duration_seconds",
			Help:    "Full evaluation latency (strategies + regime + ensemble)",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		StrategySignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_strategy_signals_total",
			Help: "Strategy signals emitted (by strategy and direction)",
		}, []string{"strategy", "direction"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_strategy_fallbacks_total",
			Help: "Degraded-path signals emitted per strategy",
		}, []string{"strategy"}),

		EnsembleSignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_ensemble_signals_total",
			Help: "Ensemble signals emitted (by direction)",
		}, []string{"direction"}),
		EnsembleConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_ensemble_confidence",
			Help:    "Ensemble signal confidence distribution",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		WarmupHolds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_warmup_holds_total",
			Help: "Ensemble holds forced by the candle warmup floor",
		}),

		RegimeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sigengine_regime_state",
			Help: "Detected regime per symbol (0=ranging, 1=trending, 2=volatile)",
		}, []string{"symbol"}),
		Volatility: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sigengine_volatility",
			Help: "Normalized ATR per symbol",
		}, []string{"symbol"}),

		CandlesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_candles_consumed_total",
			Help: "Candles consumed from the input stream",
		}),
		StaleCandles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_stale_candles_total",
			Help: "Candles rejected as stale or out of order",
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_redis_publish_duration_seconds",
			Help:    "Redis signal publish latency",
			Buckets: prometheus.DefBuckets,
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_sqlite_commit_duration_seconds",
			Help:    "SQLite batch commit latency (candles and journal)",
			Buckets: prometheus.DefBuckets,
		}),
		JournalBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_journal_batch_size",
			Help:    "Rows per SQLite batch commit",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		WindowOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sigengine_window_occupancy",
			Help: "Candles currently held in the rolling window per symbol",
		}, []string{"symbol"}),
		ConsumerReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_pel_messages_reclaimed_total",
			Help: "Messages reclaimed from dead consumers via XCLAIM",
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDur,
		m.StrategySignalsTotal,
		m.FallbacksTotal,
		m.EnsembleSignalsTotal,
		m.EnsembleConfidence,
		m.WarmupHolds,
		m.RegimeState,
		m.Volatility,
		m.CandlesConsumed,
		m.StaleCandles,
		m.RedisPublishDur,
		m.SQLiteCommitDur,
		m.JournalBatchSize,
		m.WindowOccupancy,
		m.ConsumerReclaimed,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastCandleTime time.Time `json:"last_candle_time"`
	EngineOK       bool      `json:"engine_ok"`
	Symbols        []string  `json:"symbols"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCandleTime(t time.Time) {
	h.mu.Lock()
	h.LastCandleTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetEngineOK(v bool) {
	h.mu.Lock()
	h.EngineOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSymbols(symbols []string) {
	h.mu.Lock()
	h.Symbols = symbols
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.RedisConnected || !h.SQLiteOK || !h.EngineOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		EngineOK        bool     `json:"engine_ok"`
		LastCandleTime  string   `json:"last_candle_time"`
		CandleAge       string   `json:"candle_age"`
		Symbols         []string `json:"symbols"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		EngineOK:        h.EngineOK,
		LastCandleTime:  h.LastCandleTime.Format(time.RFC3339),
		CandleAge:       candleAge,
		Symbols:         h.Symbols,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
