package lut

import (
	"log/slog"
	"sync"
)

// Outcome names the terminal state of a search.
type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeInfeasible Outcome = "infeasible"
)

// Result is the outcome of Search: either Accepted or Infeasible.
type Result interface {
	Outcome() Outcome
	isResult()
}

// Accepted carries the coarsest table that met the error bound.
type Accepted struct {
	Table    *Table
	Step     int64
	MaxError float64
}

// Infeasible reports that even a step of 1 exceeded the error bound.
type Infeasible struct {
	// LastStep is the last step that was evaluated (always 1).
	LastStep int64

	// MaxError is the error measured for LastStep.
	MaxError float64
}

func (Accepted) Outcome() Outcome   { return OutcomeAccepted }
func (Infeasible) Outcome() Outcome { return OutcomeInfeasible }
func (Accepted) isResult()          {}
func (Infeasible) isResult()        {}

// Iteration describes one evaluated candidate step.
type Iteration struct {
	Ordinal  int     `json:"ordinal"`
	Step     int64   `json:"step"`
	Segments int     `json:"segments"`
	MaxError float64 `json:"max_error"`
	Samples  int     `json:"samples"`
	Excluded int     `json:"excluded"`
	Accepted bool    `json:"accepted"`
}

// Observer receives every iteration in search order.
type Observer func(Iteration)

// Option configures Search and SearchConcurrent.
type Option func(*searchConfig)

type searchConfig struct {
	observers []Observer
}

// WithObserver registers fn to be called after each iteration.
// Observers cannot influence the search.
func WithObserver(fn Observer) Option {
	return func(c *searchConfig) {
		c.observers = append(c.observers, fn)
	}
}

func newSearchConfig(opts []Option) *searchConfig {
	c := &searchConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *searchConfig) report(spec Spec, it Iteration) {
	goal := "failed"
	if it.Accepted {
		goal = "achieved"
	}
	slog.Info("search iteration",
		"id", spec.ID,
		"ite", it.Ordinal,
		"dx", it.Step,
		"nx", it.Segments,
		"error", it.MaxError,
		"max_error", spec.MaxAbsError,
		"goal", goal,
	)
	if it.Excluded > 0 {
		slog.Debug("undefined samples excluded from error", "dx", it.Step, "excluded", it.Excluded)
	}
	for _, fn := range c.observers {
		fn(it)
	}
}

// Search finds the coarsest power-of-two step whose table stays within
// spec.MaxAbsError of f.
//
// Starting at the width of the domain, the step is rounded down to a power of
// two, a fresh table over [Start, End+step) is built and measured on a grid of
// resolution step/GridDivisions. A failing step is decremented and rounded down
// again, so the candidates are successive halvings. Search returns Infeasible
// once the step would drop below 1.
//
// A non-nil error means the spec is invalid or f is undefined at a sample point.
func Search(spec Spec, f Func, opts ...Option) (Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cfg := newSearchConfig(opts)

	step := spec.Width()
	for ordinal := 1; ; ordinal++ {
		step = FloorPowerOfTwo(step)

		it, table, err := evaluateStep(spec, f, step, ordinal)
		if err != nil {
			return nil, err
		}
		cfg.report(spec, it)

		if it.Accepted {
			return Accepted{Table: table, Step: step, MaxError: it.MaxError}, nil
		}

		last := step
		step--
		if step < 1 {
			slog.Warn("no power-of-two step meets the error bound, try a lower accuracy",
				"id", spec.ID, "max_error", spec.MaxAbsError)
			return Infeasible{LastStep: last, MaxError: it.MaxError}, nil
		}
	}
}

// CandidateSteps lists the steps Search visits for a domain of the given
// width, coarsest first.
func CandidateSteps(width int64) []int64 {
	var steps []int64
	for s := FloorPowerOfTwo(width); s >= 1; s = FloorPowerOfTwo(s - 1) {
		steps = append(steps, s)
	}
	return steps
}

// SearchConcurrent evaluates candidate steps on up to workers goroutines and
// returns the same result Search would. f must be safe for concurrent use.
//
// Steps are handed out coarsest first in batches of workers. No step finer
// than the batch holding the accepted step is evaluated. Iterations are
// reported in search order, and only up to the deciding one.
func SearchConcurrent(spec Spec, f Func, workers int, opts ...Option) (Result, error) {
	if workers <= 1 {
		return Search(spec, f, opts...)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cfg := newSearchConfig(opts)

	type stepResult struct {
		it    Iteration
		table *Table
		err   error
	}

	steps := CandidateSteps(spec.Width())
	var last Iteration
	for lo := 0; lo < len(steps); lo += workers {
		batch := steps[lo:min(lo+workers, len(steps))]
		results := make([]stepResult, len(batch))

		var wg sync.WaitGroup
		for i, step := range batch {
			i, step := i, step
			wg.Add(1)
			go func() {
				defer wg.Done()
				it, table, err := evaluateStep(spec, f, step, lo+i+1)
				results[i] = stepResult{it: it, table: table, err: err}
			}()
		}
		wg.Wait()

		for _, r := range results {
			if r.err != nil {
				return nil, r.err
			}
			cfg.report(spec, r.it)
			if r.it.Accepted {
				return Accepted{Table: r.table, Step: r.it.Step, MaxError: r.it.MaxError}, nil
			}
			last = r.it
		}
	}
	slog.Warn("no power-of-two step meets the error bound, try a lower accuracy",
		"id", spec.ID, "max_error", spec.MaxAbsError)
	return Infeasible{LastStep: last.Step, MaxError: last.MaxError}, nil
}

// evaluateStep builds and scores the table for one step. It shares no state
// with other calls.
func evaluateStep(spec Spec, f Func, step int64, ordinal int) (Iteration, *Table, error) {
	table, err := Build(spec.Start, spec.End+step, step, f)
	if err != nil {
		return Iteration{}, nil, err
	}
	grid := FineGrid(spec.Start, spec.End, step)
	m := Evaluate(table, f, grid)

	if spec.Debug {
		segs := table.Segments()
		starts := make([]int64, len(segs))
		for i, s := range segs {
			starts[i] = s.Start
		}
		slog.Debug("candidate table",
			"dx", step,
			"seg_start", starts,
			"values", table.Values(),
			"grid_points", len(grid),
		)
	}

	return Iteration{
		Ordinal:  ordinal,
		Step:     step,
		Segments: table.Len(),
		MaxError: m.MaxError,
		Samples:  m.Samples,
		Excluded: m.Excluded,
		Accepted: m.MaxError <= spec.MaxAbsError,
	}, table, nil
}
