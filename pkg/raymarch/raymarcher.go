// Package raymarch integrates luminance and transmittance along rays through
// participating media.
package raymarch

import (
	"errors"
	"fmt"

	"github.com/df07/go-raymarcher/pkg/core"
)

var (
	// ErrNoSampler is returned by Integrate when no sampler has been set
	ErrNoSampler = errors.New("raymarcher has no sampler")
	// ErrNoIntervalSource is returned by Integrate when no interval source was provided
	ErrNoIntervalSource = errors.New("raymarcher has no interval source")
)

// Raymarcher integrates the volume along a ray.
//
// Integrate may be called concurrently for independent rays. SetSampler is a
// setup step and must not race with Integrate.
type Raymarcher interface {
	// SetSampler sets the raymarch sampler to use during integration
	SetSampler(sampler Sampler)
	// Integrate returns the luminance and transmittance gathered along the ray.
	// An error means the ray failed as a whole; sample-level problems are
	// reported in IntegrationResult.Diagnostics instead.
	Integrate(state *core.RayState) (IntegrationResult, error)
}

// Option configures a raymarcher
type Option func(*marcher)

// WithLogger sets the logger notified about sampler failures
func WithLogger(logger core.Logger) Option {
	return func(m *marcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSampler sets the sampler at construction time
func WithSampler(sampler Sampler) Option {
	return func(m *marcher) {
		m.sampler = sampler
	}
}

// New creates the raymarcher variant named by config.Marcher
func New(config Config, source IntervalSource, opts ...Option) (Raymarcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Marcher {
	case MarcherUniform:
		return NewUniformRaymarcher(config, source, opts...), nil
	case MarcherAdaptive:
		return NewAdaptiveRaymarcher(config, source, opts...), nil
	default:
		return nil, fmt.Errorf("unknown marcher %q", config.Marcher)
	}
}
