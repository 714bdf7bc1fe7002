package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the Postgres-backed audit trail: completed triage runs and
// extraction audits, kept for review by program staff. The workflow and
// auditor work without it; persistence is observational.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type TriageRun struct {
	ID            string
	Lang          string
	Age           int
	CheckType     string
	Severity      string
	Response      string
	StepError     string
	AMIESessionID string
	CreatedAt     time.Time
}

func (s *Store) InsertTriageRun(ctx context.Context, run TriageRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triage_runs (id, lang, age, check_type, severity, response, step_error, amie_session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), now())
	`, run.ID, run.Lang, run.Age, run.CheckType, run.Severity, run.Response, run.StepError, run.AMIESessionID)
	return err
}

func (s *Store) ListTriageRuns(ctx context.Context, severity string, limit int) ([]TriageRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lang, age, check_type, severity, response, coalesce(step_error, ''), coalesce(amie_session_id, ''), created_at
		FROM triage_runs
		WHERE ($1 = '' OR severity = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, severity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriageRun
	for rows.Next() {
		var run TriageRun
		if err := rows.Scan(&run.ID, &run.Lang, &run.Age, &run.CheckType, &run.Severity,
			&run.Response, &run.StepError, &run.AMIESessionID, &run.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type ExtractionAudit struct {
	ID              string
	ConfidenceScore float64
	ConfidenceLevel string
	IssuesFound     []string
	Payload         map[string]any
	CreatedAt       time.Time
}

func (s *Store) InsertExtractionAudit(ctx context.Context, audit ExtractionAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	issues, err := json.Marshal(audit.IssuesFound)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(audit.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_audits (id, confidence_score, confidence_level, issues_found, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, audit.ID, audit.ConfidenceScore, audit.ConfidenceLevel, issues, payload)
	return err
}
