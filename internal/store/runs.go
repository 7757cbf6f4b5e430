package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/roach88/reconcile/internal/report"
)

// Run is one recorded case outcome.
type Run struct {
	ID   string `json:"id"`
	Case string `json:"case"`
	Pass bool   `json:"pass"`
	Seq  int64  `json:"seq"`
}

// WriteOutcome records a case outcome and its checks in one transaction
// and returns the new run id. Runs are ordered by a logical sequence
// assigned here, one past the highest recorded.
func (s *Store) WriteOutcome(ctx context.Context, out *report.Outcome) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write outcome: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(started_seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return "", fmt.Errorf("write outcome: next seq: %w", err)
	}

	id := s.ids.Generate()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, case_name, pass, started_seq)
		VALUES (?, ?, ?, ?)
	`, id, out.Case, boolInt(out.Pass), seq); err != nil {
		return "", fmt.Errorf("write outcome: insert run: %w", err)
	}

	for i, c := range out.Checks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checks (run_id, ordinal, name, pass, max_abs, tolerance, step, quantity, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, c.Name, boolInt(c.Pass), nullFloat(c.MaxAbs), c.Tolerance, c.Step, c.Quantity, c.Message); err != nil {
			return "", fmt.Errorf("write outcome: insert check %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write outcome: commit: %w", err)
	}
	return id, nil
}

// ListRuns returns recorded runs in sequence order. A non-empty caseName
// restricts the list to that case.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, caseName string) ([]Run, error) {
	query := `SELECT id, case_name, pass, started_seq FROM runs`
	var args []any
	if caseName != "" {
		query += ` WHERE case_name = ?`
		args = append(args, caseName)
	}
	query += ` ORDER BY started_seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var pass int
		if err := rows.Scan(&r.ID, &r.Case, &pass, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Pass = pass != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Checks returns the checks of a run in recorded order.
func (s *Store) Checks(ctx context.Context, runID string) ([]report.CheckOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, pass, max_abs, tolerance, step, quantity, message
		FROM checks
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	checks := []report.CheckOutcome{}
	for rows.Next() {
		var c report.CheckOutcome
		var pass int
		var maxAbs sql.NullFloat64
		if err := rows.Scan(&c.Name, &pass, &maxAbs, &c.Tolerance, &c.Step, &c.Quantity, &c.Message); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		c.Pass = pass != 0
		c.MaxAbs = math.NaN()
		if maxAbs.Valid {
			c.MaxAbs = maxAbs.Float64
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return checks, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullFloat stores a NaN maximum as NULL.
func nullFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
