package squares

import (
	"sync"
	"testing"
)

func TestRand(t *testing.T) {
	r := Default()
	if r.Key() != Key {
		t.Fatalf("expected key %#x, got %#x", Key, r.Key())
	}
	if v := r.Uint32(); v != 920159078 {
		t.Fatalf("expected 920159078, got %d", v)
	}
	if v := r.Uint32(); v != 2487686880 {
		t.Fatalf("expected 2487686880, got %d", v)
	}
	if prev := r.SetCounter(0); prev != 2 {
		t.Fatalf("expected previous counter 2, got %d", prev)
	}

	v := r.Uint64()
	if v != 0x36d88366cee633a5 {
		t.Fatalf("expected 0x36d88366cee633a5, got %#x", v)
	}
	if r.Counter() != 1 {
		t.Fatalf("Uint64 must advance the counter once, counter is %d",
			r.Counter())
	}
	stitched := uint64(Mix32(0, Key))<<32 | uint64(Mix32(1, Key))
	if v == stitched {
		t.Fatal("Uint64 must not be two concatenated Uint32 draws")
	}
}

func TestRandSetCounter(t *testing.T) {
	r := NewWithCounter(42, Key)
	if r.Counter() != 42 {
		t.Fatalf("expected 42, got %d", r.Counter())
	}
	for _, c := range []uint64{7, 0, 1 << 40, ^uint64(0)} {
		r.SetCounter(c)
		res := r.Full32()
		if res.Counter != c {
			t.Fatalf("expected draw to consume %d, got %d", c, res.Counter)
		}
		if res.Value != Mix32(c, Key) {
			t.Fatalf("counter %d: value does not match Mix32", c)
		}
	}
	// the last draw consumed MaxUint64, so the counter wrapped
	if r.Counter() != 0 {
		t.Fatalf("expected counter to wrap to 0, got %d", r.Counter())
	}
	if prev := r.SetCounter(9); prev != 0 {
		t.Fatalf("expected previous counter 0, got %d", prev)
	}
}

func TestRandFull(t *testing.T) {
	r := New(0x9e3779b97f4a7c15)
	for i := uint64(0); i < 100; i++ {
		a := r.Full32()
		if a.Counter != 2*i || a.Value != Mix32(a.Counter, r.Key()) {
			t.Fatalf("bad Full32 result %+v", a)
		}
		b := r.Full64()
		if b.Counter != 2*i+1 || b.Value != Mix64(b.Counter, r.Key()) {
			t.Fatalf("bad Full64 result %+v", b)
		}
	}
}

func TestRandBounded(t *testing.T) {
	r := Default()
	for i := 0; i < 50000; i++ {
		if v := r.Uint32n(500); v >= 500 {
			t.Fatalf("Uint32n(500) returned %d", v)
		}
	}
	for i := 0; i < 50000; i++ {
		if v := r.Uint64n(500); v >= 500 {
			t.Fatalf("Uint64n(500) returned %d", v)
		}
	}

	r.SetCounter(0)
	want := []uint32{107, 289, 391, 105, 219}
	for i, w := range want {
		if v := r.Uint32n(500); v != w {
			t.Fatalf("draw %d: expected %d, got %d", i, w, v)
		}
	}
	if r.Counter() != uint64(len(want)) {
		t.Fatalf("expected counter %d, got %d", len(want), r.Counter())
	}
}

func TestRandBoundedPowerOfTwo(t *testing.T) {
	r := Default()
	for i := 0; i < 10000; i++ {
		before := r.Counter()
		r.Uint32n(1 << uint(i%32))
		r.Uint64n(1 << uint(i%64))
		if r.Counter()-before != 2 {
			t.Fatalf("power of two bound retried at counter %d", before)
		}
	}
}

func TestRandBoundedRetry(t *testing.T) {
	r := NewWithCounter(0, Key)
	if v := r.Uint32n(1<<31 + 1); v != 1243843440 {
		t.Fatalf("expected 1243843440, got %d", v)
	}
	if r.Counter() != 2 {
		t.Fatalf("expected a rejected draw to advance counter to 2, got %d",
			r.Counter())
	}

	r = NewWithCounter(2, Key)
	if v := r.Uint64n(1<<63 + 1); v != 1938292993790895110 {
		t.Fatalf("expected 1938292993790895110, got %d", v)
	}
	if r.Counter() != 4 {
		t.Fatalf("expected a rejected draw to advance counter to 4, got %d",
			r.Counter())
	}
}

func TestRandBoundedUniform(t *testing.T) {
	const (
		bound = 6
		draws = 60000
		slack = draws / bound * 3 / 100
	)
	check := func(name string, counts [bound]int) {
		t.Helper()
		for i, n := range counts {
			if n < draws/bound-slack || n > draws/bound+slack {
				t.Fatalf("%s: bucket %d has %d hits, expected about %d",
					name, i, n, draws/bound)
			}
		}
	}
	var counts [bound]int
	r := Default()
	for i := 0; i < draws; i++ {
		counts[r.Uint32n(bound)]++
	}
	check("Uint32n", counts)

	counts = [bound]int{}
	r.SetCounter(0)
	for i := 0; i < draws; i++ {
		counts[r.Uint64n(bound)]++
	}
	check("Uint64n", counts)
}

func TestRandConcurrent(t *testing.T) {
	const (
		workers = 8
		draws   = 10000
	)
	r := Default()
	results := make([][]Result[uint32], workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			out := make([]Result[uint32], draws)
			for j := range out {
				out[j] = r.Full32()
			}
			results[i] = out
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*draws)
	for _, out := range results {
		for _, res := range out {
			if _, ok := seen[res.Counter]; ok {
				t.Fatalf("counter %d was drawn twice", res.Counter)
			}
			seen[res.Counter] = struct{}{}
			if res.Value != Mix32(res.Counter, Key) {
				t.Fatalf("counter %d: value does not match Mix32", res.Counter)
			}
		}
	}
	if len(seen) != workers*draws {
		t.Fatalf("expected %d distinct counters, got %d",
			workers*draws, len(seen))
	}
	if r.Counter() != workers*draws {
		t.Fatalf("expected counter %d, got %d", workers*draws, r.Counter())
	}
}

func BenchmarkRand(b *testing.B) {
	r := Default()
	b.Run("Uint32", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Uint32()
		}
	})
	b.Run("Uint64", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Uint64()
		}
	})
	b.Run("Uint32n", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Uint32n(1000)
		}
	})
	b.Run("Uint64n", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Uint64n(1000)
		}
	})
	b.Run("Parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				r.Uint64()
			}
		})
	})
}
