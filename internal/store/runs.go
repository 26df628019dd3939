package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/simcheck/internal/harness"
)

// Run kinds.
const (
	KindRange     = "range"
	KindScenarios = "scenarios"
)

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded validation call.
type Run struct {
	ID        string
	Kind      string
	Subject   string // model file or matrix name
	Policy    harness.Policy
	StartedAt time.Time
	Rows      int // scenario rows or series samples checked
	Findings  []harness.Finding
}

// RunSummary is a run without its findings.
type RunSummary struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	Subject      string         `json:"subject"`
	Policy       harness.Policy `json:"policy"`
	StartedAt    time.Time      `json:"started_at"`
	Rows         int            `json:"rows"`
	FindingCount int            `json:"finding_count"`
}

// RecordRun stores a run and its findings in one transaction. The findings
// snapshot is stored alongside so a run can be compared byte for byte with
// a later one.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: id is required")
	}
	snapshot, err := harness.Snapshot(run.Subject, run.Findings)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, kind, subject, policy, started_at, row_count, finding_count, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Kind,
		run.Subject,
		string(run.Policy),
		run.StartedAt.UTC().Format(timeLayout),
		run.Rows,
		len(run.Findings),
		string(snapshot),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for i, f := range run.Findings {
		detail, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("record run: finding %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO findings (run_id, seq, kind, variable, message, detail)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, string(f.Kind), f.Variable, f.Message, string(detail))
		if err != nil {
			return fmt.Errorf("record run: finding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}

// GetRun returns a run with its findings in their original order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, subject, policy, started_at, row_count, finding_count
		FROM runs
		WHERE id = ?
	`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT detail
		FROM findings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	findings := []harness.Finding{}
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		var f harness.Finding
		if err := json.Unmarshal([]byte(detail), &f); err != nil {
			return nil, fmt.Errorf("decode finding: %w", err)
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}

	return &Run{
		ID:        summary.ID,
		Kind:      summary.Kind,
		Subject:   summary.Subject,
		Policy:    summary.Policy,
		StartedAt: summary.StartedAt,
		Rows:      summary.Rows,
		Findings:  findings,
	}, nil
}

// Snapshot returns the stored canonical findings snapshot of a run.
func (s *Store) Snapshot(ctx context.Context, id string) ([]byte, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM runs WHERE id = ?`, id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return []byte(snapshot), nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run. An empty kind matches every kind.
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, subject, policy, started_at, row_count, finding_count
		FROM runs
		WHERE ? = '' OR kind = ?
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// VariableHistory returns the findings recorded for one variable, newest run
// first.
func (s *Store) VariableHistory(ctx context.Context, variable string) ([]harness.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.detail
		FROM findings f
		JOIN runs r ON r.id = f.run_id
		WHERE f.variable = ?
		ORDER BY r.started_at DESC, r.id COLLATE BINARY DESC, f.seq ASC
	`, variable)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	findings := []harness.Finding{}
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		var f harness.Finding
		if err := json.Unmarshal([]byte(detail), &f); err != nil {
			return nil, fmt.Errorf("decode finding: %w", err)
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return findings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		r         RunSummary
		policy    string
		startedAt string
	)
	if err := row.Scan(&r.ID, &r.Kind, &r.Subject, &policy, &startedAt, &r.Rows, &r.FindingCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan run: %w", err)
	}
	r.Policy = harness.Policy(policy)
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return r, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	r.StartedAt = t
	return r, nil
}
