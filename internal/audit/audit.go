// Package audit records task and shell runs to SQLite.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run kinds.
const (
	KindTask  = "task"
	KindShell = "shell"
)

// Entry represents a single run record.
type Entry struct {
	RunID      string
	Timestamp  time.Time
	ChatID     int64
	Username   string
	Kind       string
	Name       string
	Command    string
	ExitCode   int
	DurationMs int64
}

// Logger persists run records.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// SQLiteLogger implements Logger using SQLite.
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger creates a logger backed by SQLite.
func NewSQLiteLogger(dbPath string) (*SQLiteLogger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteLogger{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			started_at_ms INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			username TEXT,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			command TEXT NOT NULL,
			exit_code INTEGER,
			duration_ms INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_ms);
		CREATE INDEX IF NOT EXISTS idx_runs_chat_id ON runs(chat_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Log records a run. A missing RunID or Timestamp is filled in.
func (l *SQLiteLogger) Log(ctx context.Context, entry Entry) error {
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `
		INSERT INTO runs (run_id, started_at_ms, chat_id, username, kind, name, command, exit_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.RunID,
		entry.Timestamp.UnixMilli(),
		entry.ChatID,
		entry.Username,
		entry.Kind,
		entry.Name,
		entry.Command,
		entry.ExitCode,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// Recent returns up to limit runs, newest first.
func (l *SQLiteLogger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, started_at_ms, chat_id, username, kind, name, command, exit_code, duration_ms
		FROM runs
		ORDER BY started_at_ms DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			startedMs int64
			username  sql.NullString
		)
		if err := rows.Scan(&e.RunID, &startedMs, &e.ChatID, &username, &e.Kind, &e.Name, &e.Command, &e.ExitCode, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Timestamp = time.UnixMilli(startedMs)
		e.Username = username.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return entries, nil
}

// Close releases database resources.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}

// NopLogger is a no-op logger for the CLI and tests.
type NopLogger struct{}

// Log does nothing.
func (NopLogger) Log(ctx context.Context, entry Entry) error {
	return nil
}

// Recent returns nothing.
func (NopLogger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return nil, nil
}

// Close does nothing.
func (NopLogger) Close() error {
	return nil
}
