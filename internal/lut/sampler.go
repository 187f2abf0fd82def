package lut

import (
	"fmt"
	"math"
)

// Func is the continuous function being approximated.
//
// It may return NaN or ±Inf where it is undefined. Such values are ignored when
// measuring table error, but a table cannot be built if the function is
// undefined at one of its sample points.
type Func func(x float64) float64

// SampleError reports a sample point where the function has no integer value.
type SampleError struct {
	X int64
	Y float64
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("function value at sample x=%d is not representable as int64 (got %v)", e.X, e.Y)
}

// Quantize truncates y toward negative infinity.
// It reports false when y is not finite or floor(y) does not fit in an int64.
func Quantize(y float64) (int64, bool) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, false
	}
	q := math.Floor(y)
	// -2^63 is exact in float64; 2^63 is the first value past MaxInt64.
	if q < math.MinInt64 || q >= math.MaxInt64 {
		return 0, false
	}
	return int64(q), true
}

// Sample evaluates f at the integer x and quantizes the result.
func (f Func) Sample(x int64) (int64, error) {
	y := f(float64(x))
	v, ok := Quantize(y)
	if !ok {
		return 0, &SampleError{X: x, Y: y}
	}
	return v, nil
}
