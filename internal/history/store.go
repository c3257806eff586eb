// Package history keeps an audit trail of dispatched alerts in SQLite.
// It is best-effort bookkeeping: the pipeline treats a history failure the
// same way it treats a cache write failure, log and move on.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// Entry is one dispatched alert.
type Entry struct {
	ID           string
	RunID        string
	IncidentID   string
	AlertTitle   string
	SeverityID   int
	DispatchedAt time.Time
}

// Store persists dispatch history in a SQLite database.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the history database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS dispatch_history (
			id            TEXT PRIMARY KEY,
			run_id        TEXT NOT NULL,
			incident_id   TEXT NOT NULL,
			alert_title   TEXT NOT NULL,
			severity_id   INTEGER NOT NULL,
			dispatched_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_dispatch_history_incident
			ON dispatch_history(incident_id);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{path: path, db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one dispatched alert.
func (s *Store) Record(ctx context.Context, runID, incidentID, title string, severityID int) error {
	query := `
		INSERT INTO dispatch_history (id, run_id, incident_id, alert_title, severity_id, dispatched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), runID, incidentID, title, severityID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// List returns dispatch history, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Entry, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatch_history").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dispatch history: %w", err)
	}

	query := `
		SELECT id, run_id, incident_id, alert_title, severity_id, dispatched_at
		FROM dispatch_history ORDER BY dispatched_at DESC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query dispatch history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.IncidentID, &e.AlertTitle, &e.SeverityID, &e.DispatchedAt); err != nil {
			return nil, 0, fmt.Errorf("scan dispatch history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ListByIncident returns every dispatch recorded for one incident.
func (s *Store) ListByIncident(ctx context.Context, incidentID string) ([]*Entry, error) {
	query := `
		SELECT id, run_id, incident_id, alert_title, severity_id, dispatched_at
		FROM dispatch_history WHERE incident_id = ? ORDER BY dispatched_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("query dispatch history by incident: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.IncidentID, &e.AlertTitle, &e.SeverityID, &e.DispatchedAt); err != nil {
			return nil, fmt.Errorf("scan dispatch history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
