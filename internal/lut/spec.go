package lut

import (
	"errors"
	"fmt"
	"math"
)

// Precondition errors returned by Spec.Validate and Search.
var (
	ErrDegenerateDomain   = errors.New("degenerate domain: end must be greater than start")
	ErrDomainOverflow     = errors.New("domain out of range: start and end + width must lie within ±2^53")
	ErrNegativeErrorBound = errors.New("maximum absolute error must be a non-negative number")
)

// Spec holds the parameters of one table synthesis run.
// It is treated as immutable once a search has started.
type Spec struct {
	// ID names the generated artifacts (lookup_<id>.c, LU_<ID>_* macros).
	ID string `json:"id"`

	// Start is the first x covered by the table.
	Start int64 `json:"start"`

	// End is the exclusive upper bound of the requested domain. The table
	// itself extends one step past End.
	End int64 `json:"end"`

	// MaxAbsError is the largest tolerated |table(x) - f(x)|.
	MaxAbsError float64 `json:"max_abs_error"`

	// Debug enables verbose dumps of every candidate table.
	Debug bool `json:"debug,omitempty"`
}

// Width returns End - Start.
func (s Spec) Width() int64 {
	return s.End - s.Start
}

// MaxDomain bounds |Start| and End + width. Beyond it float64 no longer holds
// every integer, so the fine grid and Index lose precision.
const MaxDomain = 1 << 53

// Validate checks the preconditions of Search.
func (s Spec) Validate() error {
	if s.End <= s.Start {
		return fmt.Errorf("%w (start=%d, end=%d)", ErrDegenerateDomain, s.Start, s.End)
	}
	width := s.End - s.Start
	// width < 0 means End - Start itself wrapped around.
	if width < 0 || width > MaxDomain || s.Start < -MaxDomain || s.Start > MaxDomain || s.End > MaxDomain-width {
		return fmt.Errorf("%w (start=%d, end=%d)", ErrDomainOverflow, s.Start, s.End)
	}
	if math.IsNaN(s.MaxAbsError) || s.MaxAbsError < 0 {
		return fmt.Errorf("%w (got %v)", ErrNegativeErrorBound, s.MaxAbsError)
	}
	return nil
}
