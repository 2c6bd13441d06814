package squares

import (
	"math"
	"testing"
)

func TestBound32(t *testing.T) {
	var calls int
	next := func() uint32 {
		calls++
		return math.MaxUint32
	}

	// raw 0 lands below the threshold for a bound of 3 and must be rejected
	if v := Bound32(0, 3, next); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("expected 1 retry, got %d", calls)
	}

	calls = 0
	if v := Bound32(math.MaxUint32, 10, next); v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
	if v := Bound32(1<<31+1, 10, next); v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
	if calls != 0 {
		t.Fatalf("expected no retries, got %d", calls)
	}
}

func TestBound64(t *testing.T) {
	var calls int
	next := func() uint64 {
		calls++
		return math.MaxUint64
	}

	if v := Bound64(0, 3, next); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("expected 1 retry, got %d", calls)
	}

	calls = 0
	if v := Bound64(math.MaxUint64, 10, next); v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
	if v := Bound64(1<<63+1, 10, next); v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
	if calls != 0 {
		t.Fatalf("expected no retries, got %d", calls)
	}
}

func TestBoundPowerOfTwo(t *testing.T) {
	next32 := func() uint32 {
		t.Fatal("power of two bound must not retry")
		return 0
	}
	next64 := func() uint64 {
		t.Fatal("power of two bound must not retry")
		return 0
	}
	for shift := 0; shift < 32; shift++ {
		bound := uint32(1) << shift
		for _, raw := range []uint32{0, 1, 7, 1 << 31, math.MaxUint32} {
			if v := Bound32(raw, bound, next32); v >= bound {
				t.Fatalf("Bound32(%d, %d) = %d", raw, bound, v)
			}
		}
	}
	for shift := 0; shift < 64; shift++ {
		bound := uint64(1) << shift
		for _, raw := range []uint64{0, 1, 7, 1 << 63, math.MaxUint64} {
			if v := Bound64(raw, bound, next64); v >= bound {
				t.Fatalf("Bound64(%d, %d) = %d", raw, bound, v)
			}
		}
	}
}

func TestBoundZero(t *testing.T) {
	expectPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if r := recover(); r != ErrZeroBound {
				t.Fatalf("%s: expected ErrZeroBound panic, got %v", name, r)
			}
		}()
		fn()
	}
	expectPanic("Bound32", func() { Bound32(1, 0, nil) })
	expectPanic("Bound64", func() { Bound64(1, 0, nil) })

	r := Default()
	expectPanic("Uint32n", func() { r.Uint32n(0) })
	expectPanic("Uint64n", func() { r.Uint64n(0) })
	if r.Counter() != 0 {
		t.Fatalf("zero bound consumed a draw, counter is %d", r.Counter())
	}
}
