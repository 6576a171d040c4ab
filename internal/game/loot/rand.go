package loot

import "math/rand/v2"

// Rand is the random source consumed by the resolver.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a uniform float in [0.0, 1.0).
	Float64() float64
	// IntN returns a uniform int in [0, n). n must be > 0.
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRand returns the process-wide random source.
func DefaultRand() Rand { return globalRand{} }

// NewSeededRand returns a deterministic source for simulations and tests.
// Not safe for concurrent use.
func NewSeededRand(seed1, seed2 uint64) Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}
