package squares

import (
	"math"
	"testing"
)

func TestMix32(t *testing.T) {
	tests := []struct {
		counter uint64
		key     uint64
		want    uint32
	}{
		{0, Key, 920159078},
		{1, Key, 2487686880},
		{2, Key, 3366515936},
		{3, Key, 902588010},
		{1 << 63, Key, 2018162113},
		{math.MaxUint64 - 1, Key, 2693240549},
		{math.MaxUint64, Key, 1128597156},
		{5, 1, 0},
		{7, 0, 0},
	}
	for _, test := range tests {
		for i := 0; i < 3; i++ {
			if got := Mix32(test.counter, test.key); got != test.want {
				t.Fatalf("Mix32(%d, %#x) = %d, want %d",
					test.counter, test.key, got, test.want)
			}
		}
	}
}

func TestMix64(t *testing.T) {
	tests := []struct {
		counter uint64
		key     uint64
		want    uint64
	}{
		{0, Key, 0x36d88366cee633a5},
		{1, Key, 0x944716e00e60dfaa},
		{2, Key, 0xc8a8f4e0678654bf},
		{3, Key, 0x35cc666aab11c80d},
		{1 << 63, Key, 8667940275185726618},
		{math.MaxUint64 - 1, Key, 11567380081624013978},
		{math.MaxUint64, Key, 4847287876544065568},
		{5, 1, 6},
		{7, 0, 0},
	}
	for _, test := range tests {
		for i := 0; i < 3; i++ {
			if got := Mix64(test.counter, test.key); got != test.want {
				t.Fatalf("Mix64(%d, %#x) = %#x, want %#x",
					test.counter, test.key, got, test.want)
			}
		}
	}
}

func TestMix64HighHalf(t *testing.T) {
	// the round 4 state that Mix64 keeps is the one Mix32 truncates
	for c := uint64(0); c < 1000; c++ {
		if uint32(Mix64(c, Key)>>32) != Mix32(c, Key) {
			t.Fatalf("counter %d: high half of Mix64 differs from Mix32", c)
		}
	}
}

func TestMixAllocs(t *testing.T) {
	var sink uint64
	allocs := testing.AllocsPerRun(100, func() {
		sink += uint64(Mix32(sink, Key))
		sink += Mix64(sink, Key)
	})
	if allocs != 0 {
		t.Fatalf("expected zero allocations, got %v", allocs)
	}
}

func BenchmarkMix32(b *testing.B) {
	b.ReportAllocs()
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink ^= Mix32(uint64(i), Key)
	}
	_ = sink
}

func BenchmarkMix64(b *testing.B) {
	b.ReportAllocs()
	var sink uint64
	for i := 0; i < b.N; i++ {
		sink ^= Mix64(uint64(i), Key)
	}
	_ = sink
}
