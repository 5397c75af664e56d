package core

import "math/rand/v2"

// StepJitter offsets sample positions inside raymarch steps to trade banding for noise.
// It is a value type seeded per ray, so it never touches shared state.
type StepJitter struct {
	pcg     rand.PCG
	enabled bool
}

// NewStepJitter creates a jitter sequence for one ray. When disabled every
// offset is 0.5, i.e. samples sit at step midpoints.
func NewStepJitter(seed uint64, enabled bool) StepJitter {
	j := StepJitter{enabled: enabled}
	j.pcg.Seed(seed, seed^0x9e3779b97f4a7c15)
	return j
}

// Get1D returns the next offset in [0, 1)
func (j *StepJitter) Get1D() float64 {
	if !j.enabled {
		return 0.5
	}
	return float64(j.pcg.Uint64()>>11) * 0x1p-53
}

// PixelSeed derives a well-mixed per-pixel seed (splitmix64 finalizer)
func PixelSeed(x, y int, base uint64) uint64 {
	z := base + uint64(x)*0x9e3779b97f4a7c15 + uint64(y)*0xbf58476d1ce4e5b9
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
