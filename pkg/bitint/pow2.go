// SPDX-License-Identifier: MIT
/*
Package bitint provides the small amount of bit arithmetic the capture and
analysis stages need when sizing audio chunks.

Chunk sizes are kept at powers of two so that a chunk splits evenly into the
one-sided spectrum (chunk/2 bins) and the bass region used for the energy
signal (chunk/4 bins). Both helpers are constant time and allocation free.

Usage:

	if !bitint.IsPowerOfTwo(cfg.Audio.ChunkSize) {
		hint := bitint.NextPowerOfTwo(cfg.Audio.ChunkSize)
		...
	}
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
//
// size-1 is used so that an exact power of two maps onto itself:
//
//	size=2048: bits.Len(2047) = 11, 1<<11 = 2048
//	size=2049: bits.Len(2048) = 12, 1<<12 = 4096
//
// Non-positive sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of two has
// a single bit set, so clearing its lowest set bit with n&(n-1) leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
