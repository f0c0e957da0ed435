package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// ErrNotFound is returned when a report ID has no row.
var ErrNotFound = errors.New("report not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id         TEXT PRIMARY KEY,
	session_id        TEXT NOT NULL,
	position          TEXT,
	experience        TEXT,
	overall_score     INTEGER NOT NULL,
	avg_confidence    INTEGER NOT NULL,
	avg_relevance     INTEGER NOT NULL,
	avg_communication INTEGER NOT NULL,
	end_reason        TEXT,
	report_json       TEXT NOT NULL,
	started_at        TEXT,
	ended_at          TEXT,
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_samples (
	report_id     TEXT NOT NULL,
	idx           INTEGER NOT NULL,
	question_id   TEXT,
	confidence    INTEGER NOT NULL,
	relevance     INTEGER NOT NULL,
	communication INTEGER NOT NULL,
	answer        TEXT,
	PRIMARY KEY (report_id, idx),
	FOREIGN KEY (report_id) REFERENCES reports(report_id)
);

CREATE TABLE IF NOT EXISTS session_journal (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	kind          TEXT NOT NULL,
	phase         TEXT,
	cursor        INTEGER NOT NULL DEFAULT 0,
	detail_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_session ON session_journal(session_id);
`
// #endregion schema

// #region store-struct
// Store persists finished reports and the session journal in SQLite.
type Store struct {
	db *sql.DB
}

// Summary is one row of ListReports.
type Summary struct {
	ID           string
	SessionID    string
	Position     string
	Experience   string
	OverallScore int
	Averages     interview.Averages
	EndReason    string
	EndedAt      time.Time
}
// #endregion store-struct

// #region constructor
// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. the session journal).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-report
// SaveReport writes a report and its per-question samples atomically and returns the report ID.
// A report without an ID is assigned one.
func (s *Store) SaveReport(ctx context.Context, r interview.Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (report_id, session_id, position, experience, overall_score,
		   avg_confidence, avg_relevance, avg_communication, end_reason, report_json,
		   started_at, ended_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Settings.Position, r.Settings.Experience, r.OverallScore,
		r.Averages.Confidence, r.Averages.Relevance, r.Averages.Communication, r.EndReason,
		string(reportJSON), formatTime(r.StartedAt), formatTime(r.EndedAt),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	for i, sample := range r.Samples {
		var questionID, answer interface{}
		if i < len(r.Questions) {
			questionID = r.Questions[i].ID
		}
		if i < len(r.Answers) {
			answer = r.Answers[i]
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO report_samples (report_id, idx, question_id, confidence, relevance, communication, answer)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, questionID, sample.Confidence, sample.Relevance, sample.Communication, answer,
		)
		if err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return r.ID, nil
}
// #endregion save-report

// #region get-report
// GetReport retrieves a stored report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (interview.Report, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE report_id = ?`, id,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return interview.Report{}, fmt.Errorf("get report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return interview.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}

	var r interview.Report
	if err := json.Unmarshal([]byte(reportJSON), &r); err != nil {
		return interview.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return r, nil
}
// #endregion get-report

// #region samples
// Samples returns the stored per-question samples of a report in question order.
func (s *Store) Samples(ctx context.Context, reportID string) ([]interview.MetricSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT confidence, relevance, communication
		 FROM report_samples WHERE report_id = ? ORDER BY idx`, reportID,
	)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []interview.MetricSample
	for rows.Next() {
		var m interview.MetricSample
		if err := rows.Scan(&m.Confidence, &m.Relevance, &m.Communication); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, m)
	}
	return samples, rows.Err()
}
// #endregion samples

// #region list-reports
// ListReports returns the most recent reports, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT report_id, session_id, position, experience, overall_score,
		   avg_confidence, avg_relevance, avg_communication, end_reason, ended_at
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var position, experience, endReason, endedAt sql.NullString
		if err := rows.Scan(&sum.ID, &sum.SessionID, &position, &experience, &sum.OverallScore,
			&sum.Averages.Confidence, &sum.Averages.Relevance, &sum.Averages.Communication,
			&endReason, &endedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sum.Position = position.String
		sum.Experience = experience.String
		sum.EndReason = endReason.String
		if endedAt.Valid {
			sum.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt.String)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
// #endregion list-reports

// #region time-encoding
func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
// #endregion time-encoding
