// Package store persists daily K-line bars in a local SQLite database so
// collector runs only fetch what the remote has added since the last sync.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/maxwell-lv/mootdx/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS klines (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL,
	amount REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_klines_date ON klines (date);
`

// KlineStore wraps one SQLite database holding daily bars keyed by
// (symbol, date). Writes are upserts, so re-syncing a range is idempotent.
type KlineStore struct {
	db *sql.DB
}

// Open creates the database file (and its directory) when missing and
// ensures the schema.
func Open(path string) (*KlineStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &KlineStore{db: db}, nil
}

// Close releases the database handle.
func (s *KlineStore) Close() error {
	return s.db.Close()
}

// Upsert writes bars, overwriting rows that already exist for the same
// symbol and date. It returns the number of bars written.
func (s *KlineStore) Upsert(ctx context.Context, bars []models.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO klines (symbol, date, open, high, low, close, volume, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
		    open=excluded.open,
		    high=excluded.high,
		    low=excluded.low,
		    close=excluded.close,
		    volume=excluded.volume,
		    amount=excluded.amount`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	written := 0
	for _, b := range bars {
		if b.Symbol == "" || b.Date == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Amount); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %s@%s: %w", b.Symbol, b.Date, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// Range reads bars for one symbol with begin <= date < end, ascending.
func (s *KlineStore) Range(ctx context.Context, symbol, begin, end string) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, amount
		FROM klines
		WHERE symbol = ? AND date >= ? AND date < ?
		ORDER BY date ASC`, symbol, begin, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LastDate returns the most recent stored date for a symbol, or "" when the
// symbol has no rows yet.
func (s *KlineStore) LastDate(ctx context.Context, symbol string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM klines WHERE symbol = ?`, symbol).Scan(&date)
	if err != nil {
		return "", err
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// Count returns the number of stored bars for a symbol.
func (s *KlineStore) Count(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM klines WHERE symbol = ?`, symbol).Scan(&n)
	return n, err
}
