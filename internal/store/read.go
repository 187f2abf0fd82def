package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/lutgen/internal/lut"
)

// ErrNotFound is returned by ReadRun for an unknown run ID.
var ErrNotFound = errors.New("run not found")

const runColumns = `id, seq, param_id, source, domain_start, domain_end, max_abs_error, outcome, step, max_error, value_type, segments, table_hash`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		outcome  string
		maxError sql.NullFloat64
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.ParamID,
		&run.Source,
		&run.Start,
		&run.End,
		&run.MaxAbsError,
		&outcome,
		&run.Step,
		&maxError,
		&run.ValueType,
		&run.Segments,
		&run.TableHash,
	)
	if err != nil {
		return Run{}, err
	}
	run.Outcome = lut.Outcome(outcome)
	run.MaxError = errorFromNull(maxError)
	return run, nil
}

// ReadRun returns the run with the given ID, including its iterations in
// ordinal order.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}

	run.Iterations, err = s.readIterations(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) readIterations(ctx context.Context, runID string) ([]lut.Iteration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, step, segments, max_error, samples, excluded, accepted
		FROM iterations
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	its := []lut.Iteration{}
	for rows.Next() {
		var (
			it       lut.Iteration
			maxError sql.NullFloat64
		)
		if err := rows.Scan(&it.Ordinal, &it.Step, &it.Segments, &maxError, &it.Samples, &it.Excluded, &it.Accepted); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		it.MaxError = errorFromNull(maxError)
		its = append(its, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	return its, nil
}

// ListRuns returns recorded runs without their iterations, oldest first.
// An empty paramID lists every run.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, paramID string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if paramID != "" {
		query += ` WHERE param_id = ?`
		args = append(args, paramID)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
