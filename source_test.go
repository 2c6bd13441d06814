package squares

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"
)

func TestRandSource(t *testing.T) {
	r := Default()
	r.Seed(5)
	if r.Counter() != 5 {
		t.Fatalf("Seed must set the counter, got %d", r.Counter())
	}
	if v := r.Int63(); v != int64(Mix64(5, Key)>>1) {
		t.Fatalf("unexpected Int63 %d", v)
	}

	// a math/rand wrapper sees the same stream
	rr := rand.New(NewWithCounter(0, Key))
	if v := rr.Uint64(); v != 0x36d88366cee633a5 {
		t.Fatalf("expected 0x36d88366cee633a5, got %#x", v)
	}
	for i := 0; i < 1000; i++ {
		if v := rr.Int63(); v < 0 {
			t.Fatalf("negative Int63 %d", v)
		}
	}
}

func TestRandIntn(t *testing.T) {
	r := Default()
	for _, n := range []int{1, 2, 3, 100, 1 << 20} {
		for i := 0; i < 1000; i++ {
			if v := r.Intn(n); v < 0 || v >= n {
				t.Fatalf("Intn(%d) returned %d", n, v)
			}
		}
	}
	for i := 0; i < 1000; i++ {
		if v := r.Int(); v < 0 {
			t.Fatalf("negative Int %d", v)
		}
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected Intn(0) to panic")
		}
	}()
	r.Intn(0)
}

func TestRandFloat(t *testing.T) {
	r := Default()
	if v := r.Float64(); v != float64(0x36d88366cee633a5>>11)/(1<<53) {
		t.Fatalf("unexpected first Float64 %v", v)
	}
	for i := 0; i < 10000; i++ {
		if v := r.Float64(); v < 0 || v >= 1 {
			t.Fatalf("Float64 out of range: %v", v)
		}
		if v := r.Float32(); v < 0 || v >= 1 {
			t.Fatalf("Float32 out of range: %v", v)
		}
	}
}

func TestRandRead(t *testing.T) {
	r := Default()
	p := make([]byte, 10)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(p) {
		t.Fatalf("expected %d bytes, got %d", len(p), n)
	}
	want := []byte{165, 51, 230, 206, 102, 131, 216, 54, 170, 223}
	if !bytes.Equal(p, want) {
		t.Fatalf("expected %v, got %v", want, p)
	}
	if r.Counter() != 2 {
		t.Fatalf("expected two draws, counter is %d", r.Counter())
	}

	if n, _ := r.Read(nil); n != 0 || r.Counter() != 2 {
		t.Fatal("empty read must not draw")
	}
}

func TestRandShuffle(t *testing.T) {
	r := Default()
	s := make([]int, 100)
	for i := range s {
		s[i] = i
	}
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	var moved int
	for i, v := range s {
		if i != v {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("shuffle left the slice in order")
	}
	sort.Ints(s)
	for i, v := range s {
		if i != v {
			t.Fatalf("shuffle lost element %d", i)
		}
	}

	// same counter, same permutation
	a := NewWithCounter(77, Key).Perm(50)
	b := NewWithCounter(77, Key).Perm(50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Perm is not reproducible")
		}
	}
	sort.Ints(a)
	for i, v := range a {
		if i != v {
			t.Fatalf("Perm is missing %d", i)
		}
	}
}

func TestRandNegativeArgs(t *testing.T) {
	for name, fn := range map[string]func(r *Rand){
		"Perm":    func(r *Rand) { r.Perm(-1) },
		"Shuffle": func(r *Rand) { r.Shuffle(-1, func(i, j int) {}) },
		"Intn":    func(r *Rand) { r.Intn(-1) },
	} {
		func() {
			r := Default()
			defer func() {
				want := "invalid argument to " + name
				if got := recover(); got != want {
					t.Fatalf("expected panic %q, got %v", want, got)
				}
				if r.Counter() != 0 {
					t.Fatalf("%s: counter moved to %d", name, r.Counter())
				}
			}()
			fn(r)
		}()
	}
}
