// Package lut synthesizes power-of-two lookup tables for integer-only targets.
//
// A table approximates a function f(x) over an integer domain [start, end) with
// a sequence of contiguous segments, each holding floor(f(sample_x)). Sample
// points are spaced by a power-of-two step so that the index of any x reduces
// to a subtraction and a right shift:
//
//	index(x) = (x - origin) >> log2(step),  origin = start - step/2
//
// and is clamped into [0, n-1]. The emitted C macro uses exactly this
// arithmetic, so Table.IndexInt is the reference for generated code.
//
// # Search
//
// Search starts from the widest power-of-two step that fits the domain and
// halves it until the table error, measured on a grid ten times finer than the
// step, is within the requested bound. The outcome is either Accepted or
// Infeasible; there is no partially valid result.
//
// # Segment boundaries
//
// With h = step/2 interior segments cover [sample_x-h, sample_x+h-1]. The first
// segment starts at the domain start and the last one ends at its own sample
// point, so both boundary segments are about half as wide as interior ones.
// Indexing always measures from the virtual full-width left edge origin, which
// keeps the formula uniform across the whole table.
package lut
