package squares

import (
	"encoding/binary"
	"math"
	"math/rand"
)

var _ rand.Source64 = (*Rand)(nil)

// Seed sets the counter to seed. It exists to satisfy rand.Source; the key
// is unchanged.
func (r *Rand) Seed(seed int64) {
	r.SetCounter(uint64(seed))
}

// Int63 returns a non-negative pseudo-random int64.
func (r *Rand) Int63() int64 {
	return int64(r.Uint64() >> 1)
}

// Int returns a non-negative pseudo-random int.
func (r *Rand) Int() int {
	return int(uint(r.Uint64()) << 1 >> 1)
}

// Intn returns a pseudo-random number in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}
	if uint64(n) <= math.MaxUint32 {
		return int(r.Uint32n(uint32(n)))
	}
	return int(r.Uint64n(uint64(n)))
}

// Float64 returns a pseudo-random number in [0.0, 1.0) built from the top
// 53 bits of a single Uint64 draw.
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Float32 returns a pseudo-random number in [0.0, 1.0) built from the top
// 24 bits of a single Uint32 draw.
func (r *Rand) Float32() float32 {
	return float32(r.Uint32()>>8) / (1 << 24)
}

// Read fills p with pseudo-random bytes, eight bytes per Uint64 draw in
// little endian order. The final partial word still consumes a full draw.
// It always returns len(p) and a nil error.
func (r *Rand) Read(p []byte) (n int, err error) {
	n = len(p)
	for len(p) >= 8 {
		binary.LittleEndian.PutUint64(p, r.Uint64())
		p = p[8:]
	}
	if len(p) > 0 {
		var last [8]byte
		binary.LittleEndian.PutUint64(last[:], r.Uint64())
		copy(p, last[:])
	}
	return n, nil
}

// Shuffle pseudo-randomizes the order of n elements using Fisher-Yates.
// swap swaps the elements with indexes i and j. It panics if n < 0.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	if n < 0 {
		panic("invalid argument to Shuffle")
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}

// Perm returns a pseudo-random permutation of the integers [0, n).
// It panics if n < 0.
func (r *Rand) Perm(n int) []int {
	if n < 0 {
		panic("invalid argument to Perm")
	}
	m := make([]int, n)
	for i := 0; i < n; i++ {
		j := r.Intn(i + 1)
		m[i] = m[j]
		m[j] = i
	}
	return m
}
