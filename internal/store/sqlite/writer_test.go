package sqlite

import (
	"context"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

// recordingObserver satisfies prometheus.Observer for assertions.
type recordingObserver struct {
	count int
	sum   float64
}

func (o *recordingObserver) Observe(v float64) {
	o.count++
	o.sum += v
}

func candleAt(sym string, ts time.Time, close float64) model.Candle {
	return model.Candle{
		Symbol:   sym,
		OpenTime: ts,
		Open:     close - 0.5,
		High:     close + 1,
		Low:      close - 1,
		Close:    close,
		Volume:   1000,
	}
}

func TestWriterRun_PersistsCandles(t *testing.T) {
	commit := &recordingObserver{}
	batch := &recordingObserver{}
	w, err := New(WriterConfig{DBPath: ":memory:", CommitDur: commit, BatchSize: batch})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	base := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
	ch := make(chan model.Candle, 3)
	for i := 0; i < 3; i++ {
		ch <- candleAt("NIFTY", base.Add(time.Duration(i)*time.Minute), 100+float64(i))
	}
	close(ch)
	w.Run(context.Background(), ch)

	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM candles WHERE symbol = ?`, "NIFTY").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 candles persisted, got %d", n)
	}

	last, err := w.GetLastTimestamp("NIFTY")
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if want := base.Add(2 * time.Minute).Unix(); last != want {
		t.Errorf("expected last ts %d, got %d", want, last)
	}

	if commit.count == 0 {
		t.Error("expected commit duration observations")
	}
	if batch.count != 1 || batch.sum != 3 {
		t.Errorf("expected one batch of 3 rows, got count=%d sum=%v", batch.count, batch.sum)
	}
}

func TestWriterRun_UpsertsDuplicateTimestamps(t *testing.T) {
	w, err := New(WriterConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	ts := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
	ch := make(chan model.Candle, 2)
	ch <- candleAt("NIFTY", ts, 100)
	ch <- candleAt("NIFTY", ts, 101) // redelivery with corrected close
	close(ch)
	w.Run(context.Background(), ch)

	var n int
	var lastClose float64
	if err := w.db.QueryRow(`SELECT COUNT(*), MAX(close) FROM candles WHERE symbol = ?`, "NIFTY").Scan(&n, &lastClose); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected primary key upsert to keep 1 row, got %d", n)
	}
	if lastClose != 101 {
		t.Errorf("expected last write to win, got close %v", lastClose)
	}
}

func TestRunJournal_PersistsSignals(t *testing.T) {
	commit := &recordingObserver{}
	w, err := New(WriterConfig{DBPath: ":memory:", CommitDur: commit})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	ts := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	entry := JournalEntry{
		Ensemble: model.EnsembleSignal{
			Symbol:                 "NIFTY",
			Direction:              model.Buy,
			Confidence:             0.72,
			Reason:                 "weighted consensus",
			ContributingStrategies: []string{"ema_crossover", "macd"},
			Votes:                  model.VoteBreakdown{Buy: 2, Hold: 1},
			TS:                     ts,
		},
		Strategies: []model.StrategySignal{
			{Strategy: "ema_crossover", Direction: model.Buy, Confidence: 0.8, Reason: "golden cross", TS: ts},
			{Strategy: "macd", Direction: model.Buy, Confidence: 0.6, Reason: "histogram flip", TS: ts},
			{Strategy: "rsi", Direction: model.Hold, Confidence: 0.2, Reason: "neutral", TS: ts},
		},
	}

	ch := make(chan JournalEntry, 1)
	ch <- entry
	close(ch)
	w.RunJournal(context.Background(), ch)

	var ens, sigs int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM ensemble_signals`).Scan(&ens); err != nil {
		t.Fatalf("ensemble count: %v", err)
	}
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM strategy_signals`).Scan(&sigs); err != nil {
		t.Fatalf("strategy count: %v", err)
	}
	if ens != 1 || sigs != 3 {
		t.Fatalf("expected 1 ensemble + 3 strategy rows, got %d + %d", ens, sigs)
	}

	var contributors string
	if err := w.db.QueryRow(`SELECT contributors FROM ensemble_signals`).Scan(&contributors); err != nil {
		t.Fatalf("contributors: %v", err)
	}
	if contributors != `["ema_crossover","macd"]` {
		t.Errorf("unexpected contributors JSON: %s", contributors)
	}

	if commit.count == 0 {
		t.Error("expected commit duration observations")
	}
}
