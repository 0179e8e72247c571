package estimate

import (
	"math/rand/v2"
	"time"
)

// Sampler draws income values. Implementations need not be safe for
// concurrent use.
type Sampler interface {
	Uniform(lo, hi float64) float64
}

// RandSampler is a seeded PCG-backed Sampler.
type RandSampler struct {
	seed uint64
	rng  *rand.Rand
}

// NewSampler creates a sampler. Seed 0 seeds from the clock; Seed reports
// the value actually used so a run can be reproduced.
func NewSampler(seed uint64) *RandSampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandSampler{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the generator seed.
func (s *RandSampler) Seed() uint64 { return s.seed }

// Uniform returns a value in [lo, hi).
func (s *RandSampler) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}
