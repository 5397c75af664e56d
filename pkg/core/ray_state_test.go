package core

import (
	"math"
	"testing"
)

type zProjector struct{}

func (zProjector) Depth(p Vec3) float64 { return -p.Z }

func TestRayState_Depth(t *testing.T) {
	state := NewRayState(NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, -2)))

	// Default depth is the ray parameter
	if got := state.Depth(state.Ray.At(1.5)); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("Expected depth 1.5, got %f", got)
	}

	state.Projector = zProjector{}
	if got := state.Depth(state.Ray.At(1.5)); math.Abs(got-3) > 1e-12 {
		t.Errorf("Expected projected depth 3, got %f", got)
	}
}

func TestRayState_FarBound(t *testing.T) {
	state := NewRayState(NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)))

	if got := state.FarBound(7); got != 7 {
		t.Errorf("Expected fallback for infinite TMax, got %f", got)
	}

	state.TMax = 10
	if got := state.FarBound(7); got != 10 {
		t.Errorf("Expected far bound 10, got %f", got)
	}
}
