// Package store persists query outcomes to SQLite so past runs can be
// listed with `seatfinder history`.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"seatfinder/internal/logging"
	"seatfinder/internal/runner"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one recorded query outcome.
type Entry struct {
	ID         int64
	RunID      string
	RecordedAt time.Time
	Index      int // position of the query in its run
	UnitCode   string
	Query      string
	Status     runner.Status

	// Set only for found outcomes
	Activity uint64
	Seats    int
	Day      string
	Time     string
	Location string

	Error    string
	Duration time.Duration
}

// HistoryStore records outcomes in a single SQLite table.
type HistoryStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
	now    func() time.Time
}

// NewRunID returns a fresh identifier grouping the outcomes of one run.
func NewRunID() string {
	return uuid.NewString()
}

// NewHistoryStore opens (creating if needed) the database at path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewHistoryStore")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Outcomes arrive from parallel queries; one connection keeps writes
	// ordered and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}

	s := &HistoryStore{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("History store ready at %s", path)
	return s, nil
}

func (s *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		query_index INTEGER NOT NULL,
		unit_code TEXT NOT NULL,
		query TEXT NOT NULL,
		status TEXT NOT NULL,
		activity INTEGER,
		seats INTEGER,
		day TEXT,
		start_time TEXT,
		location TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_unit ON outcomes(unit_code);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *HistoryStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Record stores one outcome under runID.
func (s *HistoryStore) Record(ctx context.Context, runID string, o runner.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		activity, seats      sql.NullInt64
		day, start, location sql.NullString
		errText              sql.NullString
	)
	if a := o.Allocation; a != nil {
		activity = sql.NullInt64{Int64: int64(a.Activity), Valid: true}
		seats = sql.NullInt64{Int64: int64(a.Seats), Valid: true}
		day = sql.NullString{String: a.Day.String(), Valid: true}
		start = sql.NullString{String: a.Time.String(), Valid: true}
		location = sql.NullString{String: a.Location, Valid: true}
	}
	if o.Err != nil {
		errText = sql.NullString{String: o.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, recorded_at, query_index, unit_code, query, status,
			activity, seats, day, start_time, location, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.now().UnixMilli(), o.Index, o.Query.UnitCode(), o.Query.String(), string(o.Status()),
		activity, seats, day, start, location, errText, o.Duration.Milliseconds(),
	)
	if err != nil {
		logging.StoreWarn("Failed to record outcome of query %d: %v", o.Index+1, err)
		return fmt.Errorf("record outcome: %w", err)
	}
	logging.StoreDebug("Recorded %s outcome for %s (run %s)", o.Status(), o.Query.UnitCode(), runID)
	return nil
}

// Recent returns up to limit entries, newest first. A unit filter of ""
// matches every unit.
func (s *HistoryStore) Recent(ctx context.Context, unit string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, recorded_at, query_index, unit_code, query, status,
			activity, seats, day, start_time, location, error, duration_ms
		FROM outcomes
		WHERE ? = '' OR unit_code = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, unit, unit, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			recordedAt, durMs    int64
			status               string
			activity, seats      sql.NullInt64
			day, start, location sql.NullString
			errText              sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &recordedAt, &e.Index, &e.UnitCode, &e.Query, &status,
			&activity, &seats, &day, &start, &location, &errText, &durMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.RecordedAt = time.UnixMilli(recordedAt)
		e.Status = runner.Status(status)
		e.Activity = uint64(activity.Int64)
		e.Seats = int(seats.Int64)
		e.Day = day.String
		e.Time = start.String
		e.Location = location.String
		e.Error = errText.String
		e.Duration = time.Duration(durMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats counts recorded outcomes by status.
func (s *HistoryStore) Stats(ctx context.Context) (map[runner.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outcomes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[runner.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[runner.Status(status)] = n
	}
	return stats, rows.Err()
}
