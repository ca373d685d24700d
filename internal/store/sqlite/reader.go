package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for backtests and window
// backfill on restart.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadCandles reads candles for a symbol after the given timestamp, ordered
// by timestamp ascending for correct replay order.
func (r *Reader) ReadCandles(symbol string, afterTS int64) ([]model.Candle, error) {
	rows, err := r.db.Query(`
		SELECT symbol, ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		var volume sql.NullFloat64
		if err := rows.Scan(&c.Symbol, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candles: %w", err)
		}
		c.OpenTime = time.Unix(tsUnix, 0).UTC()
		c.Volume = volume.Float64
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// ReadLastCandles reads the most recent n candles for a symbol, oldest
// first, for warming the rolling window on restart.
func (r *Reader) ReadLastCandles(symbol string, n int) ([]model.Candle, error) {
	rows, err := r.db.Query(`
		SELECT symbol, ts, open, high, low, close, volume
		FROM (
			SELECT symbol, ts, open, high, low, close, volume
			FROM candles
			WHERE symbol = ?
			ORDER BY ts DESC
			LIMIT ?
		)
		ORDER BY ts ASC
	`, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite query last candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		var volume sql.NullFloat64
		if err := rows.Scan(&c.Symbol, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan last candles: %w", err)
		}
		c.OpenTime = time.Unix(tsUnix, 0).UTC()
		c.Volume = volume.Float64
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// Symbols lists the distinct symbols present in the candle table.
func (r *Reader) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM candles ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite scan symbols: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
