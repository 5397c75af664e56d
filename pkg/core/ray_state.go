package core

import "math"

// RayState carries everything the integrator needs to know about one ray.
// It is owned by the pixel loop and only read by the raymarcher.
type RayState struct {
	Ray        Ray
	TMin       float64 // Near bound along the ray
	TMax       float64 // Far bound along the ray; may be +Inf
	DeepOutput bool    // Whether deep luminance/transmittance functions are wanted
	Seed       uint64  // Per-pixel seed for step jitter

	// Projector converts world positions to deep depths. When nil the ray
	// parameter of the projected position is used.
	Projector DepthProjector
}

// NewRayState creates a ray state spanning [0, +Inf)
func NewRayState(ray Ray) RayState {
	return RayState{
		Ray:  ray,
		TMin: 0,
		TMax: math.Inf(1),
	}
}

// Depth returns the deep-output depth of a world-space position
func (s *RayState) Depth(p Vec3) float64 {
	if s.Projector != nil {
		return s.Projector.Depth(p)
	}
	return s.Ray.Parameter(p)
}

// FarBound returns the far end of the ray in deep-depth units. When TMax is
// infinite the provided fallback (typically the last marched depth) is used.
func (s *RayState) FarBound(fallback float64) float64 {
	if math.IsInf(s.TMax, 1) || math.IsNaN(s.TMax) {
		return fallback
	}
	return s.Depth(s.Ray.At(s.TMax))
}
