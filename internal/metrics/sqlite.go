package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink stores decisions in a SQLite database
type SQLiteSink struct {
	conn *sql.DB
}

// OpenSQLite creates or opens the decision database at path.
// It enables WAL mode and runs migrations.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// One connection serializes writes from concurrent evaluations
	conn.SetMaxOpenConns(1)

	s := &SQLiteSink{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteSink) Close() error {
	return s.conn.Close()
}

func (s *SQLiteSink) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS decisions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id         TEXT NOT NULL,
    mode            TEXT NOT NULL,
    score           INTEGER NOT NULL,
    forced          INTEGER NOT NULL DEFAULT 0,
    failsafe        INTEGER NOT NULL DEFAULT 0,
    duration_ms     INTEGER NOT NULL DEFAULT 0,
    human_override  INTEGER NOT NULL DEFAULT 0,
    outcome         TEXT NOT NULL,
    created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_task ON decisions(task_id);
CREATE INDEX IF NOT EXISTS idx_decisions_mode ON decisions(mode);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Record inserts one decision
func (s *SQLiteSink) Record(ctx context.Context, r Record) error {
	query := `
		INSERT INTO decisions (
			task_id, mode, score, forced, failsafe, duration_ms,
			human_override, outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		r.Task, r.Mode, r.Score, r.Forced, r.FailSafe, r.Duration.Milliseconds(),
		r.HumanOverride, string(r.Outcome), r.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// Recent returns the latest decisions for task, newest first. An empty
// task returns decisions for all tasks.
func (s *SQLiteSink) Recent(ctx context.Context, task string, limit int) ([]Record, error) {
	query := `
		SELECT task_id, mode, score, forced, failsafe, duration_ms,
		       human_override, outcome, created_at
		FROM decisions
		WHERE (? = '' OR task_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.conn.QueryContext(ctx, query, task, task, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r          Record
			durationMS int64
			outcome    string
		)
		if err := rows.Scan(&r.Task, &r.Mode, &r.Score, &r.Forced, &r.FailSafe,
			&durationMS, &r.HumanOverride, &outcome, &r.At); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Outcome = Outcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ModeStats aggregates decisions for one review mode
type ModeStats struct {
	Mode           string
	Count          int
	AvgScore       float64
	Overrides      int
	Forced         int
	AvgDurationSec float64
}

// Stats aggregates all decisions by review mode, ordered by mode
func (s *SQLiteSink) Stats(ctx context.Context) ([]ModeStats, error) {
	query := `
		SELECT mode, COUNT(*), AVG(score), SUM(human_override), SUM(forced),
		       AVG(duration_ms) / 1000.0
		FROM decisions
		GROUP BY mode
		ORDER BY mode
	`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []ModeStats
	for rows.Next() {
		var m ModeStats
		if err := rows.Scan(&m.Mode, &m.Count, &m.AvgScore, &m.Overrides, &m.Forced, &m.AvgDurationSec); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
