// Package squares implements a counter based, non-cryptographic random
// number generator built on the Middle Square Weyl Sequence construction.
// See https://arxiv.org/abs/2004.06278 for the algorithm.
//
// State is a single 64-bit counter which is incremented once per raw draw,
// so the stream is trivially reproducible: the same (counter, key) pair
// always yields the same value. This makes it a poor choice for anything
// that needs to be unpredictable.
//
// The key should be an irregular bit pattern with roughly as many ones as
// zeros. Key is a good default.
package squares

import "math/bits"

// Key is the default key. It has a balanced number of zero and one bits.
const Key uint64 = 0x548c9decbce65297

// Mix32 maps counter and key to a uniformly distributed uint32 using four
// rounds of squaring.
func Mix32(counter, key uint64) uint32 {
	x := counter * key
	y := x
	z := y + key

	x = bits.RotateLeft64(x*x+y, 32)
	x = bits.RotateLeft64(x*x+z, 32)
	x = bits.RotateLeft64(x*x+y, 32)

	return uint32((x*x + z) >> 32)
}

// Mix64 maps counter and key to a uniformly distributed uint64. It runs one
// more round than Mix32 and xors the last two states together, so a single
// counter step fills all 64 bits.
func Mix64(counter, key uint64) uint64 {
	x := counter * key
	y := x
	z := y + key

	x = bits.RotateLeft64(x*x+y, 32)
	x = bits.RotateLeft64(x*x+z, 32)
	x = bits.RotateLeft64(x*x+y, 32)

	t := x*x + z
	x = bits.RotateLeft64(t, 32)

	return t ^ ((x*x + y) >> 32)
}
