// Package random provides the explicitly seeded random source shared by
// every sampling component. A fixed seed reproduces a run bit-for-bit.
package random

import (
	"math/rand/v2"
)

// pcgStream is the fixed PCG stream selector; only the seed varies.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a deterministic random source. It is not safe for concurrent
// use: each search chain owns its own Source.
type Source struct {
	seed uint64
	r    *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewPCG(seed, pcgStream))}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 { return s.seed }

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int { return s.r.IntN(n) }

// Uint64 returns 64 uniform random bits.
func (s *Source) Uint64() uint64 { return s.r.Uint64() }

// Float64 returns a uniform float in [0, 1).
func (s *Source) Float64() float64 { return s.r.Float64() }

// NormFloat64 returns a standard normal draw.
func (s *Source) NormFloat64() float64 { return s.r.NormFloat64() }

// Choice returns a uniformly chosen element of items, or false if items is
// empty.
func Choice[T any](s *Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[s.Intn(len(items))], true
}

// WeightedIndex draws an index with probability proportional to its weight.
// Negative weights count as zero. When every weight is zero the draw is
// uniform. It returns false only for an empty slice.
func WeightedIndex(s *Source, weights []float64) (int, bool) {
	if len(weights) == 0 {
		return 0, false
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return s.Intn(len(weights)), true
	}
	x := s.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return i, true
		}
		x -= w
	}
	// Rounding can leave x marginally above the final positive weight.
	return last, true
}
