package store

import (
	"database/sql"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/lutgen/internal/lut"
)

// Run is one recorded search.
type Run struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`

	ParamID     string  `json:"param_id"`
	Source      string  `json:"source,omitempty"`
	Start       int64   `json:"start"`
	End         int64   `json:"end"`
	MaxAbsError float64 `json:"max_abs_error"`

	Outcome lut.Outcome `json:"outcome"`

	// Step is the accepted step, or the last evaluated one when infeasible.
	Step     int64   `json:"step"`
	MaxError float64 `json:"max_error"`

	// ValueType, Segments and TableHash describe the accepted table; empty
	// otherwise.
	ValueType string `json:"value_type,omitempty"`
	Segments  int    `json:"segments,omitempty"`
	TableHash string `json:"table_hash,omitempty"`

	Iterations []lut.Iteration `json:"iterations,omitempty"`
}

// NewRun assembles the record of a finished search.
func NewRun(id string, spec lut.Spec, source string, res lut.Result, its []lut.Iteration) Run {
	run := Run{
		ID:          id,
		ParamID:     spec.ID,
		Source:      source,
		Start:       spec.Start,
		End:         spec.End,
		MaxAbsError: spec.MaxAbsError,
		Outcome:     res.Outcome(),
		Iterations:  its,
	}
	switch r := res.(type) {
	case lut.Accepted:
		run.Step = r.Step
		run.MaxError = r.MaxError
		run.ValueType = r.Table.ValueType().String()
		run.Segments = r.Table.Len()
		run.TableHash = TableHash(r.Table)
	case lut.Infeasible:
		run.Step = r.LastStep
		run.MaxError = r.MaxError
	}
	return run
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

func nullableError(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func errorFromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.Inf(1)
	}
	return n.Float64
}
