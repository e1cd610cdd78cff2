// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used when sizing FFT
frames. Everything here is branch-light integer math with no allocations.

Usage:

	// Largest power of two that fits inside a clip
	size := bitint.FloorPowerOfTwo(1500) // Returns 1024

	// Buffer sizing
	bufferSize := bitint.NextPowerOfTwo(1000) // Returns 1024

----------------------------------------------------------------------

NextPowerOfTwo relies on subtracting one before taking the bit length.
Without the subtraction an exact power of two would be doubled:

	size = 8 (0b1000): bits.Len(7) = 3, 1<<3 = 8   (correct)
	size = 8 (0b1000): bits.Len(8) = 4, 1<<4 = 16  (wrong)

FloorPowerOfTwo is the mirror image: the highest set bit of size is the
answer, so no adjustment is needed.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// FloorPowerOfTwo returns the largest power of 2 <= size, or 0 when size
// is not positive.
//
// Examples:
//
//	Input  Output
//	1      1
//	1500   1024
//	4096   4096
//	0      0
func FloorPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo checks if n is a power of 2. Powers of two have exactly
// one bit set, so n&(n-1) clears it and leaves zero.
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// ClampPowerOfTwo returns FloorPowerOfTwo(size) limited to [lo, hi]. lo and
// hi are expected to be powers of two themselves.
func ClampPowerOfTwo(size, lo, hi int) int {
	p := FloorPowerOfTwo(size)
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}
