package app

import "github.com/moontrade/squares"

// Rand is the random number interface handed to commands by Machine. Every
// call advances the shared generator.
type Rand interface {
	Uint32() uint32
	Uint64() uint64
	Uint32n(bound uint32) uint32
	Uint64n(bound uint64) uint64
	Full32() squares.Result[uint32]
	Full64() squares.Result[uint64]
	Int() int
	Float64() float64
	Read([]byte) (n int, err error)
}

var _ Rand = (*squares.Rand)(nil)
