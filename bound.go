package squares

import (
	"errors"
	"math/bits"
)

// ErrZeroBound is the panic value used when a bounded draw is asked for an
// empty range.
var ErrZeroBound = errors.New("squares: bound must be greater than zero")

// Bound32 reduces raw to a value uniformly distributed in [0, bound) using
// Lemire's multiply and reject method. When raw falls into the biased
// region, next is called for a fresh value until one is accepted.
//
// bound must be greater than zero, otherwise Bound32 panics with
// ErrZeroBound.
//
// See https://lemire.me/blog/2016/06/30/fast-random-shuffling
func Bound32(raw, bound uint32, next func() uint32) uint32 {
	if bound == 0 {
		panic(ErrZeroBound)
	}
	prod := uint64(raw) * uint64(bound)
	low := uint32(prod)
	if low < bound {
		thresh := -bound % bound
		for low < thresh {
			prod = uint64(next()) * uint64(bound)
			low = uint32(prod)
		}
	}
	return uint32(prod >> 32)
}

// Bound64 is the 64-bit variant of Bound32.
func Bound64(raw, bound uint64, next func() uint64) uint64 {
	if bound == 0 {
		panic(ErrZeroBound)
	}
	hi, lo := bits.Mul64(raw, bound)
	if lo < bound {
		thresh := -bound % bound
		for lo < thresh {
			hi, lo = bits.Mul64(next(), bound)
		}
	}
	return hi
}
