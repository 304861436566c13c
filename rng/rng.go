// Package rng provides the seeded pseudo-random source that drives every stochastic part of the
// simulation. The algorithm is fixed (a mulberry32 style 32 bit mixer) so that a given seed yields the
// same sequence on every run and on every implementation of the same algorithm.
package rng

import "math"

const (
	golden    = 0x6D2B79F5
	twoTo32   = 4294967296.0
	minRadius = 1e-300
)

// Source is a deterministic generator of uniform and Gaussian samples. It is not safe for concurrent use.
type Source struct {
	state uint32

	spare    float64 // the second Gaussian from the last polar Box-Muller draw
	hasSpare bool
}

// New returns a Source seeded with the lower 32 bits of `seed`.
func New(seed int64) *Source {
	return &Source{state: uint32(seed)}
}

// Next returns a uniform sample in [0,1).
func (s *Source) Next() float64 {
	s.state += golden
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / twoTo32
}

// NextRange returns a uniform sample in [min,max).
func (s *Source) NextRange(min, max float64) float64 {
	return min + (max-min)*s.Next()
}

// NextInt returns a uniform integer in [min,max], inclusive of both ends.
func (s *Source) NextInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(math.Floor(s.Next()*float64(max-min+1)))
}

// Normal returns a Gaussian sample using the polar Box-Muller method. Each pair of generated values is
// split across two calls: the second is cached and returned (scaled) by the following call.
func (s *Source) Normal(mean, std float64) float64 {
	if s.hasSpare {
		s.hasSpare = false
		return mean + std*s.spare
	}

	var u, v, q float64
	for {
		u = 2*s.Next() - 1
		v = 2*s.Next() - 1
		q = u*u + v*v
		if q > minRadius && q < 1 {
			break
		}
	}
	m := math.Sqrt(-2 * math.Log(q) / q)
	s.spare = v * m
	s.hasSpare = true
	return mean + std*u*m
}
