package lut

import "math"

// GridDivisions is how many error samples fall inside one step.
const GridDivisions = 10

// Measurement is the outcome of comparing a table against its function.
type Measurement struct {
	// MaxError is the largest |table(x) - f(x)| over the finite samples,
	// or +Inf when no sample was finite.
	MaxError float64 `json:"max_error"`

	// Samples counts the grid points that contributed to MaxError.
	Samples int `json:"samples"`

	// Excluded counts grid points where f was NaN or infinite.
	Excluded int `json:"excluded"`
}

// FineGrid returns start + k*step/GridDivisions for every k whose point lies
// below end + step/GridDivisions. Points are computed from k, not accumulated.
func FineGrid(start, end, step int64) []float64 {
	res := float64(step) / GridDivisions
	lo := float64(start)
	hi := float64(end) + res

	xs := make([]float64, 0, int(math.Ceil((hi-lo)/res)))
	for k := 0; ; k++ {
		x := lo + float64(k)*res
		if x >= hi {
			break
		}
		xs = append(xs, x)
	}
	return xs
}

// Evaluate measures the worst absolute deviation of t from f over xs.
// Samples where f is not finite are skipped and counted in Excluded.
func Evaluate(t *Table, f Func, xs []float64) Measurement {
	var m Measurement
	for _, x := range xs {
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			m.Excluded++
			continue
		}
		m.Samples++
		if d := math.Abs(float64(t.Value(x)) - y); d > m.MaxError {
			m.MaxError = d
		}
	}
	if m.Samples == 0 {
		m.MaxError = math.Inf(1)
	}
	return m
}

// ErrorCurve returns table(x) - f(x) for every x; undefined points stay NaN.
func ErrorCurve(t *Table, f Func, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(t.Value(x)) - y
	}
	return out
}
