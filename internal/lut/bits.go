package lut

import "math/bits"

// IsPowerOfTwo reports whether n > 0 has exactly one set bit.
func IsPowerOfTwo(n int64) bool {
	return n > 0 && bits.OnesCount64(uint64(n)) == 1
}

// FloorPowerOfTwo returns the largest power of two <= n, or 0 when n < 1.
//
// This is the closed form of decrementing n until IsPowerOfTwo holds.
func FloorPowerOfTwo(n int64) int64 {
	if n < 1 {
		return 0
	}
	return 1 << (bits.Len64(uint64(n)) - 1)
}

// Log2 returns the exponent of a power of two. The result is meaningless for
// other values; callers check IsPowerOfTwo first.
func Log2(n int64) int {
	return bits.Len64(uint64(n)) - 1
}
