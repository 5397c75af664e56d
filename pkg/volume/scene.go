// Package volume provides a small analytic scene of participating media that
// feeds the raymarcher through its interval source and sampler contracts.
package volume

import (
	"errors"
	"fmt"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/interval"
	"github.com/df07/go-raymarcher/pkg/raymarch"
)

// ErrUnknownComponent is returned by Sample for an active component the scene does not hold
var ErrUnknownComponent = errors.New("unknown volume component")

// Medium describes homogeneous per-unit-length optical properties
type Medium struct {
	Extinction core.Vec3 `yaml:"extinction"` // Absorption plus out-scattering
	Emission   core.Vec3 `yaml:"emission"`   // Self-emitted luminance
	Albedo     core.Vec3 `yaml:"albedo"`     // Fraction of extinction that scatters ambient light
}

// Component is one shaped medium of a scene
type Component struct {
	Name       string
	Shape      Shape
	Medium     Medium
	StepLength float64 // Optional marching hint for this component, 0 for none
}

// View is the suggested camera placement for a scene
type View struct {
	From core.Vec3 `yaml:"from"`
	At   core.Vec3 `yaml:"at"`
	Up   core.Vec3 `yaml:"up"`
	VFov float64   `yaml:"vfov"` // Vertical field of view in degrees
}

// Scene is a read-only collection of media once built. It is safe for
// concurrent Intervals and Sample calls.
type Scene struct {
	Name       string
	Components []Component
	Ambient    core.Vec3 // Uniform light scattered into the view by every medium
	Background core.Vec3 // Radiance behind all media
	View       View
}

// Ensure Scene implements both marcher collaborator contracts
var (
	_ raymarch.IntervalSource = (*Scene)(nil)
	_ raymarch.Sampler        = (*Scene)(nil)
)

// NewScene creates an empty scene
func NewScene(name string) *Scene {
	return &Scene{
		Name: name,
		View: View{
			From: core.NewVec3(0, 0, 0),
			At:   core.NewVec3(0, 0, -1),
			Up:   core.NewVec3(0, 1, 0),
			VFov: 45,
		},
	}
}

// Add appends a component and returns the ID intervals use to refer to it
func (s *Scene) Add(c Component) interval.ComponentID {
	s.Components = append(s.Components, c)
	return interval.ComponentID(len(s.Components) - 1)
}

// Intervals returns one candidate interval per component the ray crosses.
// The intervals may overlap; the marcher splits them.
func (s *Scene) Intervals(state *core.RayState) []interval.Interval {
	var intervals []interval.Interval
	for i, c := range s.Components {
		t0, t1, ok := c.Shape.Span(state.Ray, state.TMin, state.TMax)
		if !ok {
			continue
		}
		intervals = append(intervals, interval.New(t0, t1, interval.ComponentID(i)).WithStepLength(c.StepLength))
	}
	return intervals
}

// Sample sums the media of the active components at p. Each component
// contributes its emission plus the ambient light it scatters, both scaled by
// its density.
func (s *Scene) Sample(state *core.RayState, p core.Vec3, active []interval.ComponentID) (raymarch.Sample, error) {
	var sample raymarch.Sample
	for _, id := range active {
		if id < 0 || int(id) >= len(s.Components) {
			return raymarch.Sample{}, fmt.Errorf("%w: %d", ErrUnknownComponent, id)
		}
		c := s.Components[id]
		density := c.Shape.Density(p)
		if density <= 0 {
			continue
		}

		extinction := c.Medium.Extinction.Multiply(density)
		scattered := c.Medium.Albedo.MultiplyVec(extinction).MultiplyVec(s.Ambient)
		sample.Extinction = sample.Extinction.Add(extinction)
		sample.Luminance = sample.Luminance.Add(c.Medium.Emission.Multiply(density)).Add(scattered)
	}
	return sample, nil
}

// Bounds returns the box enclosing every bounded component. Slabs are
// unbounded horizontally and are skipped.
func (s *Scene) Bounds() (core.AABB, bool) {
	var bounds core.AABB
	found := false
	for _, c := range s.Components {
		var b core.AABB
		switch shape := c.Shape.(type) {
		case *Sphere:
			r := core.Splat(shape.Radius)
			b = core.NewAABB(shape.Center.Subtract(r), shape.Center.Add(r))
		case *Box:
			b = shape.Bounds
		default:
			continue
		}
		if !found {
			bounds, found = b, true
		} else {
			bounds = bounds.Union(b)
		}
	}
	return bounds, found
}
