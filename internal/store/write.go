package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and its iterations in a single transaction and
// returns the seq assigned to it.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run whose ID is
// already present leaves the stored run untouched and returns its seq.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	if run.ID == "" {
		return 0, fmt.Errorf("write run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, param_id, source, domain_start, domain_end, max_abs_error, outcome, step, max_error, value_type, segments, table_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.ParamID,
		run.Source,
		run.Start,
		run.End,
		run.MaxAbsError,
		string(run.Outcome),
		run.Step,
		nullableError(run.MaxError),
		run.ValueType,
		run.Segments,
		run.TableHash,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Already recorded.
		if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&seq); err != nil {
			return 0, fmt.Errorf("write run: select existing: %w", err)
		}
		return seq, nil
	}

	for _, it := range run.Iterations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO iterations
			(run_id, ordinal, step, segments, max_error, samples, excluded, accepted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			it.Ordinal,
			it.Step,
			it.Segments,
			nullableError(it.MaxError),
			it.Samples,
			it.Excluded,
			it.Accepted,
		)
		if err != nil {
			return 0, fmt.Errorf("write run: insert iteration %d: %w", it.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}

	return seq, nil
}
