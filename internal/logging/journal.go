package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// #region entry
// Entry is a single row in the session_journal table.
type Entry struct {
	SessionID  string
	Kind       string // "started" | "question_fallback" | "advanced" | "thinking" | "ending" | "submitted" | "submit_failed"
	Phase      string
	Cursor     int
	DetailJSON string
	CreatedAt  time.Time
}
// #endregion entry

// #region record
// Record writes a journal entry. The session_journal table is created by the store migrations.
func Record(ctx context.Context, db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO session_journal (session_id, kind, phase, cursor, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Kind,
		nullIfEmpty(entry.Phase),
		entry.Cursor,
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record journal: %w", err)
	}
	return nil
}

// Journal binds Record to a database handle.
type Journal struct {
	db *sql.DB
}

// NewJournal returns a Journal writing to db.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Record writes entry to the journal.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	return Record(ctx, j.db, entry)
}

// Entries returns a session's journal in insertion order.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT session_id, kind, phase, cursor, detail_json, created_at
		 FROM session_journal WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var phase, detail sql.NullString
		var created string
		if err := rows.Scan(&e.SessionID, &e.Kind, &phase, &e.Cursor, &detail, &created); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Phase = phase.String
		e.DetailJSON = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion record

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
