package flock

import "math/rand/v2"

// RandomSource supplies uniform draws for the initial state of a flock.
type RandomSource interface {
	// Uniform returns a value in [min, max).
	Uniform(min, max float64) float64
}

type pcgSource struct {
	r *rand.Rand
}

// NewRandomSource returns a PCG backed source. A zero seed picks a random one.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Uniform(min, max float64) float64 {
	return min + s.r.Float64()*(max-min)
}
