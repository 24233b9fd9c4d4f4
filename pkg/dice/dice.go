// Package dice holds the injectable random source used by story generation,
// AI decisions and turn resolution.
package dice

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is the subset of *rand.Rand the game needs.
type Source interface {
	IntN(n int) int
	Float64() float64
}

var _ Source = (*rand.Rand)(nil)

// New returns a PCG-backed source. Equal seeds give equal sequences.
func New(seed uint64) *rand.Rand {
	return rand.New(NewPCG(seed))
}

// NewPCG returns the generator behind New. Callers that need to persist a
// source mid-sequence keep the *rand.PCG and use its binary marshaling.
func NewPCG(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed>>8|3)
}

// Derive returns a seed for an independent stream keyed by salt. The same
// seed and salt always give the same result.
func Derive(seed uint64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(salt))
	// splitmix64 finalizer
	z := seed ^ h.Sum64()
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Between returns a uniform int in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Percent rolls a uniform int in [1, 100].
func Percent(src Source) int {
	return Between(src, 1, 100)
}

// Chance returns true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Jitter returns a uniform multiplier in [1-spread, 1+spread].
func Jitter(src Source, spread float64) float64 {
	return 1 - spread + src.Float64()*2*spread
}

// Pick returns a uniformly chosen element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
