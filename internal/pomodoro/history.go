package pomodoro

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session is one recorded focus interval.
type Session struct {
	ID           string
	TaskID       int
	StartedAt    time.Time
	EndedAt      time.Time
	FocusMinutes int
	Completed    bool
}

// History stores completed focus sessions in SQLite so past work survives
// daemon restarts.
type History struct {
	db   *sql.DB
	path string
}

const historySchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT PRIMARY KEY,
    task_id       INTEGER NOT NULL DEFAULT 0,
    started_at    TEXT NOT NULL,
    ended_at      TEXT NOT NULL,
    focus_minutes INTEGER NOT NULL,
    completed     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions (started_at DESC);
`

// OpenHistory initializes or connects to the session database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &History{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record inserts a session, assigning an ID when none is set.
func (h *History) Record(ctx context.Context, s Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	completed := 0
	if s.Completed {
		completed = 1
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO sessions (id, task_id, started_at, ended_at, focus_minutes, completed)
         VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.TaskID,
		s.StartedAt.UTC().Format(time.RFC3339Nano),
		s.EndedAt.UTC().Format(time.RFC3339Nano),
		s.FocusMinutes,
		completed,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Recent returns the most recently started sessions, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, task_id, started_at, ended_at, focus_minutes, completed
         FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s         Session
			started   string
			ended     string
			completed int
		)
		if err := rows.Scan(&s.ID, &s.TaskID, &started, &ended, &s.FocusMinutes, &completed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if s.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		s.Completed = completed != 0
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CountCompleted reports the number of completed sessions on record.
func (h *History) CountCompleted(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE completed = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
