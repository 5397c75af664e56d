package raymarch

import (
	"errors"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/interval"
)

// ErrInvalidSample marks a sample whose values are NaN or infinite
var ErrInvalidSample = errors.New("sample contains non-finite values")

// Sample holds the local radiative transfer quantities at one position.
// Both fields are densities per unit ray length.
type Sample struct {
	Luminance  core.Vec3 // Emitted plus in-scattered radiance
	Extinction core.Vec3 // Extinction coefficient; negative values are treated as zero
}

func (s Sample) validate() error {
	if !s.Luminance.IsFinite() || !s.Extinction.IsFinite() {
		return ErrInvalidSample
	}
	return nil
}

// Sampler evaluates the medium at a world-space position.
//
// Implementations are shared by every ray of a render and must be safe for
// concurrent calls; the same inputs must give the same output.
type Sampler interface {
	Sample(state *core.RayState, p core.Vec3, active []interval.ComponentID) (Sample, error)
}

// SamplerFunc adapts a function to the Sampler interface
type SamplerFunc func(state *core.RayState, p core.Vec3, active []interval.ComponentID) (Sample, error)

// Sample calls f
func (f SamplerFunc) Sample(state *core.RayState, p core.Vec3, active []interval.ComponentID) (Sample, error) {
	return f(state, p, active)
}

// IntervalSource produces the candidate intervals of a ray. Results may be
// unordered, overlapping, zero-length or empty.
type IntervalSource interface {
	Intervals(state *core.RayState) []interval.Interval
}

// IntervalSourceFunc adapts a function to the IntervalSource interface
type IntervalSourceFunc func(state *core.RayState) []interval.Interval

// Intervals calls f
func (f IntervalSourceFunc) Intervals(state *core.RayState) []interval.Interval {
	return f(state)
}
