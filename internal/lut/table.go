package lut

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidStep is returned by Build for steps that are not positive powers of two.
var ErrInvalidStep = errors.New("step must be a positive power of two")

// Segment is one table entry together with the x-range it stands for.
type Segment struct {
	SampleX int64 `json:"sample_x"`
	Start   int64 `json:"seg_start"` // inclusive
	End     int64 `json:"seg_end"`   // inclusive
	Value   int64 `json:"value"`
}

// Table is an immutable piecewise-constant approximation with a power-of-two step.
type Table struct {
	step     int64
	shift    uint
	segments []Segment
}

// Build samples f at start, start+step, ... < endAdjusted and returns a new table.
//
// Search calls it with endAdjusted = end + step so that the last sample lies at
// or beyond the requested domain end. Each call allocates fresh segment storage.
func Build(start, endAdjusted, step int64, f Func) (*Table, error) {
	if !IsPowerOfTwo(step) {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidStep, step)
	}
	if endAdjusted <= start {
		return nil, fmt.Errorf("%w (start=%d, end=%d)", ErrDegenerateDomain, start, endAdjusted)
	}

	n := (endAdjusted-start-1)/step + 1
	half := step / 2
	segments := make([]Segment, n)
	for i := range segments {
		x := start + int64(i)*step
		v, err := f.Sample(x)
		if err != nil {
			return nil, err
		}
		segStart := x - half
		segments[i] = Segment{
			SampleX: x,
			Start:   segStart,
			End:     segStart + step - 1,
			Value:   v,
		}
	}
	segments[0].Start = start
	segments[n-1].End = segments[n-1].SampleX

	return &Table{
		step:     step,
		shift:    uint(Log2(step)),
		segments: segments,
	}, nil
}

// Step returns the sample spacing.
func (t *Table) Step() int64 { return t.step }

// HalfStep returns step/2 (0 for a step of 1).
func (t *Table) HalfStep() int64 { return t.step / 2 }

// Log2Step returns the shift amount used by IndexInt.
func (t *Table) Log2Step() int { return int(t.shift) }

// Start returns the stored left bound of the first segment.
func (t *Table) Start() int64 { return t.segments[0].Start }

// Origin returns the virtual left edge of a full-width first segment,
// segments[0].SampleX - step/2. Indices are measured from here.
func (t *Table) Origin() int64 { return t.segments[0].SampleX - t.HalfStep() }

// Len returns the number of segments.
func (t *Table) Len() int { return len(t.segments) }

// Segment returns the i-th segment.
func (t *Table) Segment(i int) Segment { return t.segments[i] }

// Segments returns a copy of all segments in ascending order.
func (t *Table) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Values returns the quantized values in table order.
func (t *Table) Values() []int64 {
	out := make([]int64, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.Value
	}
	return out
}

// Bounds returns the smallest and largest table value.
func (t *Table) Bounds() (lo, hi int64) {
	lo, hi = t.segments[0].Value, t.segments[0].Value
	for _, s := range t.segments[1:] {
		lo = min(lo, s.Value)
		hi = max(hi, s.Value)
	}
	return lo, hi
}

// Index returns floor((x - Origin()) / step) clamped into [0, Len()-1].
// NaN is treated as below the table.
func (t *Table) Index(x float64) int {
	i := math.Floor((x - float64(t.Origin())) / float64(t.step))
	if !(i > 0) {
		return 0
	}
	if i >= float64(len(t.segments)) {
		return len(t.segments) - 1
	}
	return int(i)
}

// IndexInt is Index for integer x, computed with a right shift the way the
// generated LU_GET_<ID> macro does it.
func (t *Table) IndexInt(x int64) int {
	origin := t.Origin()
	if x < origin {
		return 0
	}
	// x >= origin, so the unsigned difference cannot wrap.
	i := (uint64(x) - uint64(origin)) >> t.shift
	if i >= uint64(len(t.segments)) {
		return len(t.segments) - 1
	}
	return int(i)
}

// Value returns the table value covering x.
func (t *Table) Value(x float64) int64 {
	return t.segments[t.Index(x)].Value
}

// ValueInt returns the table value covering the integer x.
func (t *Table) ValueInt(x int64) int64 {
	return t.segments[t.IndexInt(x)].Value
}

// ValueType returns the narrowest C integer type holding every table value.
func (t *Table) ValueType() IntType {
	return SelectType(t.Bounds())
}
