package sigengine

import (
	"context"
	"log"
	"log/slog"
	"time"

	"signal-enginev1/internal/logger"
	sqlitestore "signal-enginev1/internal/store/sqlite"
)

// startConsumer starts the Redis stream XREADGROUP consumer in a goroutine.
func (svc *Service) startConsumer(ctx context.Context) {
	if len(svc.streams) == 0 {
		return
	}
	go func() {
		if err := svc.redisReader.ConsumeCandles(ctx, svc.streams, svc.candleCh); err != nil {
			log.Printf("[sigengine] consumer error: %v", err)
		}
	}()
}

// startPELReclaimer starts periodic reclamation of stale PEL messages.
func (svc *Service) startPELReclaimer(ctx context.Context) {
	if len(svc.streams) == 0 {
		return
	}
	go svc.redisReader.StartPELReclaimer(ctx, svc.streams,
		time.Duration(svc.cfg.PELIntervalS)*time.Second,
		svc.cfg.PELMinIdleMs, svc.candleCh,
		func(count int) {
			svc.prom.ConsumerReclaimed.Add(float64(count))
			log.Printf("[sigengine] reclaimed %d stale PEL messages", count)
		})
	log.Printf("[sigengine] PEL reclaimer started (interval=%ds, minIdle=%dms)",
		svc.cfg.PELIntervalS, svc.cfg.PELMinIdleMs)
}

// processLoop consumes candles, updates the symbol's rolling window, runs one
// engine evaluation over the window snapshot, and fans the results out to the
// Redis publisher and the SQLite journal.
func (svc *Service) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-svc.candleCh:
			if !ok {
				return
			}

			svc.prom.CandlesConsumed.Inc()
			svc.health.SetLastCandleTime(c.OpenTime)

			if !svc.cal.IsOpen(c.OpenTime) {
				slog.Debug("off-session candle dropped",
					slog.String("symbol", c.Symbol), slog.Time("open_time", c.OpenTime))
				continue
			}

			w := svc.windowFor(c.Symbol)
			if !w.Push(c) {
				svc.prom.StaleCandles.Inc()
				continue
			}
			svc.prom.WindowOccupancy.WithLabelValues(c.Symbol).Set(float64(w.Len()))

			if svc.sqlWriter != nil {
				select {
				case svc.candleJournalCh <- c:
				default:
					log.Printf("[sigengine] candle journal channel full, dropping candle for %s", c.Symbol)
				}
			}

			cctx := logger.WithTraceID(ctx, logger.GenerateTraceID(c.Symbol, c.OpenTime))

			snap := w.Snapshot()
			res := svc.engine.Evaluate(c.Symbol, snap)

			attrs := append(logger.LogWithTrace(cctx),
				slog.String("symbol", c.Symbol),
				slog.String("direction", string(res.Ensemble.Direction)),
				slog.Float64("confidence", res.Ensemble.Confidence),
				slog.String("regime", string(res.Regime.State)),
			)
			slog.Debug("evaluated", attrs...)

			select {
			case svc.signalCh <- res.Ensemble:
			default:
				log.Printf("[sigengine] signal channel full, dropping publish for %s", c.Symbol)
			}

			if svc.sqlWriter != nil {
				select {
				case svc.journalCh <- sqlitestore.JournalEntry{Ensemble: res.Ensemble, Strategies: res.Signals}:
				default:
					log.Printf("[sigengine] journal channel full, dropping entry for %s", c.Symbol)
				}
			}
		}
	}
}
