package squares

import "sync/atomic"

// Result is a drawn value along with the counter that produced it.
// Feeding Counter and the generator key back into Mix32 or Mix64 yields
// Value again.
type Result[T uint32 | uint64] struct {
	Counter uint64
	Value   T
}

// Rand is a stateful generator. It increments its counter on every raw
// draw and mixes the previous counter value with a fixed key.
//
// A Rand is safe for concurrent use. Every draw claims a distinct counter
// value with a single atomic add, so concurrent callers never observe the
// same counter.
type Rand struct {
	counter uint64 // atomic, first for 64-bit alignment on 32-bit platforms
	key     uint64
}

// New returns a generator with the given key and a zero counter.
func New(key uint64) *Rand {
	return &Rand{key: key}
}

// NewWithCounter returns a generator that starts at counter. Use it to
// resume a stream from a previously saved Counter.
func NewWithCounter(counter, key uint64) *Rand {
	return &Rand{counter: counter, key: key}
}

// Default returns a generator using Key and a zero counter.
func Default() *Rand {
	return New(Key)
}

// Key returns the key the generator was created with.
func (r *Rand) Key() uint64 {
	return r.key
}

// Counter returns the counter value the next draw will consume.
func (r *Rand) Counter() uint64 {
	return atomic.LoadUint64(&r.counter)
}

// SetCounter replaces the counter and returns the previous value. Any value
// is accepted.
func (r *Rand) SetCounter(counter uint64) uint64 {
	return atomic.SwapUint64(&r.counter, counter)
}

// next claims the current counter value. Counter overflow wraps.
func (r *Rand) next() uint64 {
	return atomic.AddUint64(&r.counter, 1) - 1
}

// Uint32 returns a pseudo-random uint32.
func (r *Rand) Uint32() uint32 {
	return Mix32(r.next(), r.key)
}

// Full32 is like Uint32 but also reports the counter that was consumed.
func (r *Rand) Full32() Result[uint32] {
	c := r.next()
	return Result[uint32]{Counter: c, Value: Mix32(c, r.key)}
}

// Uint64 returns a pseudo-random uint64. It consumes a single counter step.
func (r *Rand) Uint64() uint64 {
	return Mix64(r.next(), r.key)
}

// Full64 is like Uint64 but also reports the counter that was consumed.
func (r *Rand) Full64() Result[uint64] {
	c := r.next()
	return Result[uint64]{Counter: c, Value: Mix64(c, r.key)}
}

// Uint32n returns a pseudo-random number in [0, bound) without modulo bias.
// It usually consumes one counter step, but may consume more when a draw is
// rejected. Panics with ErrZeroBound if bound is zero.
func (r *Rand) Uint32n(bound uint32) uint32 {
	if bound == 0 {
		panic(ErrZeroBound)
	}
	return Bound32(r.Uint32(), bound, r.Uint32)
}

// Uint64n returns a pseudo-random number in [0, bound) without modulo bias.
// See Uint32n.
func (r *Rand) Uint64n(bound uint64) uint64 {
	if bound == 0 {
		panic(ErrZeroBound)
	}
	return Bound64(r.Uint64(), bound, r.Uint64)
}
