package testutil

import "math"

// Sine1000 is one full period of 1000*sin over [0, 1000), the reference
// workload for search tests.
func Sine1000(x float64) float64 {
	return 1000 * math.Sin(2*math.Pi*x/1000)
}

// Identity returns x.
func Identity(x float64) float64 {
	return x
}

// Constant returns a function that ignores x.
func Constant(c float64) func(float64) float64 {
	return func(float64) float64 { return c }
}

// Sqrt is undefined (NaN) for negative x.
func Sqrt(x float64) float64 {
	return math.Sqrt(x)
}

// Ramp returns a*x + b.
func Ramp(a, b float64) func(float64) float64 {
	return func(x float64) float64 { return a*x + b }
}
