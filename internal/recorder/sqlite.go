package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"MarketLens/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists advice snapshots to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS advice_snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			bar_range    TEXT,
			bar_interval TEXT,
			engine    TEXT,
			price     REAL,
			rsi       REAL,
			macd_hist REAL,
			action    TEXT NOT NULL,
			score     INTEGER,
			reason    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_advice_symbol_ts ON advice_snapshots(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an absent indicator to SQL NULL.
func nullable(v model.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.V, Valid: v.Valid}
}

func (r *SQLiteRecorder) RecordAdvice(snap *AdviceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO advice_snapshots
		(timestamp, symbol, bar_range, bar_interval, engine, price, rsi, macd_hist, action, score, reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixNano(), strings.ToUpper(snap.Symbol), snap.Range, snap.Interval, snap.Engine,
		snap.Price, nullable(snap.RSI), nullable(snap.MACDHist),
		string(snap.Action), snap.Score, snap.Reason,
	)
	return err
}

func (r *SQLiteRecorder) LastAction(symbol string) (model.Action, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var action string
	err := r.db.QueryRow(`SELECT action FROM advice_snapshots
		WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		strings.ToUpper(symbol)).Scan(&action)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last action %s: %w", symbol, err)
	}
	return model.Action(action), true, nil
}

// History returns up to limit snapshots for symbol, newest first.
func (r *SQLiteRecorder) History(symbol string, limit int) ([]AdviceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT timestamp, symbol, bar_range, bar_interval, engine, price, rsi, macd_hist, action, score, reason
		FROM advice_snapshots WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []AdviceSnapshot
	for rows.Next() {
		var (
			ts            int64
			snap          AdviceSnapshot
			rsi, macdHist sql.NullFloat64
			action        string
		)
		if err := rows.Scan(&ts, &snap.Symbol, &snap.Range, &snap.Interval, &snap.Engine,
			&snap.Price, &rsi, &macdHist, &action, &snap.Score, &snap.Reason); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		snap.Timestamp = time.Unix(0, ts)
		snap.Action = model.Action(action)
		if rsi.Valid {
			snap.RSI = model.Some(rsi.Float64)
		}
		if macdHist.Valid {
			snap.MACDHist = model.Some(macdHist.Float64)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
