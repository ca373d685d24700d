package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/model"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Stream trimming: roughly a trading day of minute signals + buffer
	signalStreamMaxLen = 500
	defaultLatestTTL   = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	PublishDur prometheus.Observer // optional pipeline latency, seconds
}

// Writer publishes ensemble signals to Redis.
type Writer struct {
	client     *goredis.Client
	publishDur prometheus.Observer
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client, publishDur: cfg.PublishDur}, nil
}

// Run reads ensemble signals from sigCh and publishes them to Redis.
// Blocks until ctx is cancelled or sigCh is closed.
func (w *Writer) Run(ctx context.Context, sigCh <-chan model.EnsembleSignal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			w.PublishSignal(ctx, sig)
		}
	}
}

// PublishSignal performs pipelined writes for one ensemble signal:
// XADD to the per-symbol stream, SET the latest key, and PUBLISH for
// real-time subscribers.
func (w *Writer) PublishSignal(ctx context.Context, sig model.EnsembleSignal) {
	streamKey := sig.StreamKey()
	latestKey := "signal:latest:" + sig.Symbol
	pubsubCh := "pub:signal:" + sig.Symbol
	jsonData := string(sig.JSON())

	pipe := w.client.Pipeline()

	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: signalStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
		},
	})
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)

	start := time.Now()
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] signal pipeline error for %s: %v", sig.Symbol, err)
		return
	}
	if w.publishDur != nil {
		w.publishDur.Observe(time.Since(start).Seconds())
	}
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
