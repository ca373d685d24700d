package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr          string
	Password      string
	DB            int
	ConsumerGroup string // consumer group name, e.g. "sigengine"
	ConsumerName  string // unique consumer name, e.g. hostname
}

// Reader consumes candles from Redis Streams via Consumer Groups.
type Reader struct {
	client        *goredis.Client
	consumerGroup string
	consumerName  string
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	group := cfg.ConsumerGroup
	if group == "" {
		group = "sigengine"
	}
	consumer := cfg.ConsumerName
	if consumer == "" {
		consumer = "worker-1"
	}

	log.Printf("[redis-reader] connected to %s (group=%s, consumer=%s)", cfg.Addr, group, consumer)
	return &Reader{
		client:        client,
		consumerGroup: group,
		consumerName:  consumer,
	}, nil
}

// Client returns the underlying Redis client for health checks.
func (r *Reader) Client() *goredis.Client { return r.client }

// EnsureConsumerGroup creates a consumer group on the given streams if it doesn't exist.
// Uses "$" as start ID (only new messages) for fresh groups.
func (r *Reader) EnsureConsumerGroup(ctx context.Context, streams []string) error {
	for _, stream := range streams {
		err := r.client.XGroupCreateMkStream(ctx, stream, r.consumerGroup, "$").Err()
		if err != nil {
			// Ignore "BUSYGROUP" error — group already exists
			if err.Error() != "BUSYGROUP Consumer Group name already exists" {
				return fmt.Errorf("xgroup create %s: %w", stream, err)
			}
		}
	}
	return nil
}

// deliver decodes one stream message, forwards the candle, and ACKs it.
// Malformed payloads are ACKed without forwarding so they cannot sit in
// the PEL as poison pills. Reports whether a candle was forwarded.
func (r *Reader) deliver(ctx context.Context, stream string, msg goredis.XMessage, out chan<- model.Candle) (bool, error) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		r.client.XAck(ctx, stream, r.consumerGroup, msg.ID)
		return false, nil
	}

	var c model.Candle
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		log.Printf("[redis-reader] unmarshal candle error on %s: %v", stream, err)
		r.client.XAck(ctx, stream, r.consumerGroup, msg.ID)
		return false, nil
	}

	select {
	case out <- c:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	// ACK after successful handoff
	r.client.XAck(ctx, stream, r.consumerGroup, msg.ID)
	return true, nil
}

// ConsumeCandles reads candles from Redis Streams using consumer groups.
// Blocks on XREADGROUP and sends parsed candles to the output channel.
// Returns when ctx is cancelled.
func (r *Reader) ConsumeCandles(ctx context.Context, streams []string, out chan<- model.Candle) error {
	// Build stream args: [stream1, stream2, ..., ">", ">", ...]
	args := make([]string, len(streams)*2)
	for i, s := range streams {
		args[i] = s
		args[len(streams)+i] = ">"
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results, err := r.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    r.consumerGroup,
			Consumer: r.consumerName,
			Streams:  args,
			Count:    100,
			Block:    2 * time.Second,
		}).Result()
		if err != nil {
			if err == goredis.Nil || ctx.Err() != nil {
				continue
			}
			log.Printf("[redis-reader] xreadgroup error: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				if _, err := r.deliver(ctx, stream.Stream, msg, out); err != nil {
					return err
				}
			}
		}
	}
}

// RecoverPending processes any pending (unACKed) messages from a previous crash.
// This ensures at-least-once delivery semantics.
func (r *Reader) RecoverPending(ctx context.Context, streams []string, out chan<- model.Candle) error {
	for _, stream := range streams {
		for {
			pending, err := r.client.XPendingExt(ctx, &goredis.XPendingExtArgs{
				Stream: stream,
				Group:  r.consumerGroup,
				Start:  "-",
				End:    "+",
				Count:  100,
			}).Result()
			if err != nil || len(pending) == 0 {
				break
			}

			ids := make([]string, len(pending))
			for i, p := range pending {
				ids[i] = p.ID
			}

			claimed, err := r.client.XClaim(ctx, &goredis.XClaimArgs{
				Stream:   stream,
				Group:    r.consumerGroup,
				Consumer: r.consumerName,
				MinIdle:  0,
				Messages: ids,
			}).Result()
			if err != nil {
				log.Printf("[redis-reader] xclaim error on %s: %v", stream, err)
				break
			}

			for _, msg := range claimed {
				if _, err := r.deliver(ctx, stream, msg, out); err != nil {
					return err
				}
			}

			if len(claimed) < len(ids) {
				break
			}
		}
	}
	return nil
}

// ReclaimStaleMessages finds PEL entries idle > minIdleMs across all consumers
// in the group and XCLAIMs them for this consumer. Returns reclaimed messages.
func (r *Reader) ReclaimStaleMessages(ctx context.Context, stream string, minIdleMs int64, batchSize int64) ([]goredis.XMessage, error) {
	pending, err := r.client.XPendingExt(ctx, &goredis.XPendingExtArgs{
		Stream: stream,
		Group:  r.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  batchSize,
		Idle:   time.Duration(minIdleMs) * time.Millisecond,
	}).Result()
	if err != nil || len(pending) == 0 {
		return nil, err
	}

	// Filter to entries NOT owned by us (steal from dead consumers)
	var staleIDs []string
	for _, p := range pending {
		if p.Consumer != r.consumerName {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil
	}

	claimed, err := r.client.XClaim(ctx, &goredis.XClaimArgs{
		Stream:   stream,
		Group:    r.consumerGroup,
		Consumer: r.consumerName,
		MinIdle:  time.Duration(minIdleMs) * time.Millisecond,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xclaim %s: %w", stream, err)
	}

	log.Printf("[redis-reader] reclaimed %d stale PEL entries from %s", len(claimed), stream)
	return claimed, nil
}

// StartPELReclaimer runs a periodic background loop that scans for stale PEL
// entries across all streams and reclaims them via XCLAIM. Reclaimed candles
// are sent to outCh for reprocessing. Runs until ctx is cancelled.
func (r *Reader) StartPELReclaimer(ctx context.Context, streams []string, interval time.Duration, minIdleMs int64, outCh chan<- model.Candle, onReclaim func(count int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			totalReclaimed := 0
			for _, stream := range streams {
				claimed, err := r.ReclaimStaleMessages(ctx, stream, minIdleMs, 50)
				if err != nil {
					log.Printf("[redis-reader] PEL reclaim error on %s: %v", stream, err)
					continue
				}
				for _, msg := range claimed {
					forwarded, err := r.deliver(ctx, stream, msg, outCh)
					if err != nil {
						return
					}
					if forwarded {
						totalReclaimed++
					}
				}
			}
			if totalReclaimed > 0 && onReclaim != nil {
				onReclaim(totalReclaimed)
			}
		}
	}
}

// LatestSignal reads the most recent ensemble signal for a symbol, or nil
// if none is cached.
func (r *Reader) LatestSignal(ctx context.Context, symbol string) (*model.EnsembleSignal, error) {
	data, err := r.client.Get(ctx, "signal:latest:"+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get latest signal %s: %w", symbol, err)
	}

	var sig model.EnsembleSignal
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signal: %w", err)
	}
	return &sig, nil
}

// SubscribeSignals subscribes to the pub:signal:* PubSub pattern. Returns
// the PubSub handle so the caller can listen on .Channel().
func (r *Reader) SubscribeSignals(ctx context.Context) *goredis.PubSub {
	pubsub := r.client.PSubscribe(ctx, "pub:signal:*")
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("[redis-reader] signal subscribe failed: %v", err)
		pubsub.Close()
		return nil
	}
	return pubsub
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
