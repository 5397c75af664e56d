package volume

import (
	"math"

	"github.com/df07/go-raymarcher/pkg/core"
)

// Shape bounds a medium and shapes its density
type Shape interface {
	// Span returns the parametric range of the ray inside the shape,
	// restricted to [tMin, tMax]
	Span(ray core.Ray, tMin, tMax float64) (t0, t1 float64, ok bool)
	// Density returns the density multiplier at p, in [0, 1]
	Density(p core.Vec3) float64
}

// Sphere is a ball of medium, optionally thinning towards its surface
type Sphere struct {
	Center  core.Vec3 `yaml:"center"`
	Radius  float64   `yaml:"radius"`
	Falloff bool      `yaml:"falloff"` // Density 1-(r/R)^2 instead of constant
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, falloff bool) *Sphere {
	return &Sphere{
		Center:  center,
		Radius:  radius,
		Falloff: falloff,
	}
}

// Span intersects the ray with the sphere and returns both crossings
func (s *Sphere) Span(ray core.Ray, tMin, tMax float64) (float64, float64, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	if a == 0 {
		return 0, 0, false
	}
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant <= 0 {
		return 0, 0, false
	}

	sqrtD := math.Sqrt(discriminant)
	t0 := max((-halfB-sqrtD)/a, tMin)
	t1 := min((-halfB+sqrtD)/a, tMax)
	if !(t1 > t0) {
		return 0, 0, false
	}
	return t0, t1, true
}

// Density is constant inside the sphere, or falls off quadratically with the
// distance from the center
func (s *Sphere) Density(p core.Vec3) float64 {
	d2 := p.Subtract(s.Center).LengthSquared()
	r2 := s.Radius * s.Radius
	if d2 > r2 {
		return 0
	}
	if !s.Falloff {
		return 1
	}
	return 1 - d2/r2
}

// Box is an axis-aligned block of homogeneous medium
type Box struct {
	Bounds core.AABB `yaml:"bounds"`
}

// NewBox creates a box spanning two opposite corners
func NewBox(a, b core.Vec3) *Box {
	return &Box{Bounds: core.NewAABBFromPoints(a, b)}
}

func (b *Box) Span(ray core.Ray, tMin, tMax float64) (float64, float64, bool) {
	t0, t1, ok := b.Bounds.Clip(ray, tMin, tMax)
	if !ok || !(t1 > t0) {
		return 0, 0, false
	}
	return t0, t1, true
}

func (b *Box) Density(p core.Vec3) float64 {
	if b.Bounds.Contains(p) {
		return 1
	}
	return 0
}

// Slab is a horizontal layer between two heights, unbounded in X and Z.
// A ray running level inside the slab never leaves it, so its span is only
// as finite as the ray bounds.
type Slab struct {
	Bottom  float64 `yaml:"bottom"`
	Top     float64 `yaml:"top"`
	Falloff bool    `yaml:"falloff"` // Density thins linearly from 1 at Bottom to 0 at Top
}

// NewSlab creates a layer between the heights bottom and top
func NewSlab(bottom, top float64, falloff bool) *Slab {
	return &Slab{
		Bottom:  min(bottom, top),
		Top:     max(bottom, top),
		Falloff: falloff,
	}
}

func (s *Slab) Span(ray core.Ray, tMin, tMax float64) (float64, float64, bool) {
	bounds := core.NewAABB(
		core.NewVec3(math.Inf(-1), s.Bottom, math.Inf(-1)),
		core.NewVec3(math.Inf(1), s.Top, math.Inf(1)),
	)
	t0, t1, ok := bounds.Clip(ray, tMin, tMax)
	if !ok || !(t1 > t0) {
		return 0, 0, false
	}
	return t0, t1, true
}

func (s *Slab) Density(p core.Vec3) float64 {
	if p.Y < s.Bottom || p.Y > s.Top {
		return 0
	}
	if !s.Falloff || s.Top == s.Bottom {
		return 1
	}
	return (s.Top - p.Y) / (s.Top - s.Bottom)
}
