package lut

import (
	"fmt"
	"math"
)

// IntType is a fixed-width C integer type for table values.
type IntType int

const (
	U8 IntType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
)

var intTypeNames = [...]string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64"}

// String returns the short name ("u8", "i16", ...).
func (t IntType) String() string {
	if t < U8 || t > I64 {
		return fmt.Sprintf("IntType(%d)", int(t))
	}
	return intTypeNames[t]
}

// Signed reports whether t is one of the signed widths.
func (t IntType) Signed() bool { return t >= I8 }

// Bits returns the width of t.
func (t IntType) Bits() int {
	return 8 << (int(t) % 4)
}

// CName returns the <stdint.h> spelling, e.g. "uint16_t".
func (t IntType) CName() string {
	if t.Signed() {
		return fmt.Sprintf("int%d_t", t.Bits())
	}
	return fmt.Sprintf("uint%d_t", t.Bits())
}

// MarshalText implements encoding.TextMarshaler.
func (t IntType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseIntType is the inverse of IntType.String.
func ParseIntType(s string) (IntType, error) {
	for i, name := range intTypeNames {
		if name == s {
			return IntType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown integer type %q", s)
}

// SelectType picks the narrowest type holding [lo, hi]: unsigned when lo >= 0,
// signed otherwise, falling back to the 64-bit width.
func SelectType(lo, hi int64) IntType {
	if lo >= 0 {
		switch {
		case hi <= math.MaxUint8:
			return U8
		case hi <= math.MaxUint16:
			return U16
		case hi <= math.MaxUint32:
			return U32
		default:
			return U64
		}
	}
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return I8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return I16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return I32
	default:
		return I64
	}
}
