package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"

	// Optional instrumentation; nil disables.
	CommitDur prometheus.Observer // commit latency in seconds
	BatchSize prometheus.Observer // rows per committed batch
}

// Writer is a single-goroutine SQLite writer with transaction batching. It
// journals candles and emitted signals.
type Writer struct {
	db        *sql.DB
	commitDur prometheus.Observer
	batchSize prometheus.Observer
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db, commitDur: cfg.CommitDur, batchSize: cfg.BatchSize}, nil
}

// observeCommit records one committed batch on the optional observers.
func (w *Writer) observeCommit(rows int, elapsed time.Duration) {
	if w.commitDur != nil {
		w.commitDur.Observe(elapsed.Seconds())
	}
	if w.batchSize != nil {
		w.batchSize.Observe(float64(rows))
	}
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol     TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS strategy_signals (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			strategy   TEXT    NOT NULL,
			direction  TEXT    NOT NULL,
			confidence REAL    NOT NULL,
			reason     TEXT,
			ts         INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_strategy_signals_symbol_ts
			ON strategy_signals (symbol, ts);

		CREATE TABLE IF NOT EXISTS ensemble_signals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol       TEXT    NOT NULL,
			direction    TEXT    NOT NULL,
			confidence   REAL    NOT NULL,
			reason       TEXT,
			contributors TEXT,
			votes        TEXT,
			ts           INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ensemble_signals_symbol_ts
			ON ensemble_signals (symbol, ts);
	`)
	return err
}

// Run reads candles from candleCh and inserts them in batched transactions.
// Flushes every batchSize candles OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or candleCh is closed.
func (w *Writer) Run(ctx context.Context, candleCh <-chan model.Candle) {
	batch := make([]model.Candle, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertCandleBatch(batch); err != nil {
			log.Printf("[sqlite] candle batch insert error: %v", err)
		} else {
			w.observeCommit(len(batch), time.Since(start))
			log.Printf("[sqlite] committed %d candles in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case candle, ok := <-candleCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, candle)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (w *Writer) insertCandleBatch(candles []model.Candle) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.Exec(c.Symbol, c.OpenTime.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// JournalEntry pairs one ensemble signal with the strategy signals that
// produced it, for a single journal write.
type JournalEntry struct {
	Ensemble   model.EnsembleSignal
	Strategies []model.StrategySignal
}

// RunJournal reads journal entries and inserts them in batched transactions.
// Blocks until ctx is cancelled or entryCh is closed.
func (w *Writer) RunJournal(ctx context.Context, entryCh <-chan JournalEntry) {
	batch := make([]JournalEntry, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertJournalBatch(batch); err != nil {
			log.Printf("[sqlite] journal batch insert error: %v", err)
		} else {
			w.observeCommit(len(batch), time.Since(start))
			log.Printf("[sqlite] journaled %d evaluations in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case entry, ok := <-entryCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}
		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (w *Writer) insertJournalBatch(entries []JournalEntry) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	ensStmt, err := tx.Prepare(`
		INSERT INTO ensemble_signals (symbol, direction, confidence, reason, contributors, votes, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer ensStmt.Close()

	sigStmt, err := tx.Prepare(`
		INSERT INTO strategy_signals (symbol, strategy, direction, confidence, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer sigStmt.Close()

	for _, e := range entries {
		contributors, _ := json.Marshal(e.Ensemble.ContributingStrategies)
		votes, _ := json.Marshal(e.Ensemble.Votes)
		_, err := ensStmt.Exec(e.Ensemble.Symbol, string(e.Ensemble.Direction), e.Ensemble.Confidence,
			e.Ensemble.Reason, string(contributors), string(votes), e.Ensemble.TS.Unix())
		if err != nil {
			tx.Rollback()
			return err
		}
		for _, s := range e.Strategies {
			_, err := sigStmt.Exec(e.Ensemble.Symbol, s.Strategy, string(s.Direction), s.Confidence, s.Reason, s.TS.Unix())
			if err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

// GetLastTimestamp returns the last stored candle timestamp for a symbol.
// Returns 0 if no candles exist.
func (w *Writer) GetLastTimestamp(symbol string) (int64, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(ts) FROM candles WHERE symbol = ?`,
		symbol,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
