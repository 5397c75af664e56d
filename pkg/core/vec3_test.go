package core

import (
	"math"
	"testing"
)

func TestVec3_Exp(t *testing.T) {
	v := NewVec3(0, -1, -2).Exp()
	expected := NewVec3(1, math.Exp(-1), math.Exp(-2))

	const tolerance = 1e-12
	if v.Subtract(expected).Length() > tolerance {
		t.Errorf("Expected %v, got %v", expected, v)
	}
}

func TestVec3_Components(t *testing.T) {
	v := NewVec3(0.25, 0.75, 0.5)
	if v.MaxComponent() != 0.75 {
		t.Errorf("Expected max component 0.75, got %f", v.MaxComponent())
	}
	if v.MinComponent() != 0.25 {
		t.Errorf("Expected min component 0.25, got %f", v.MinComponent())
	}
	if Splat(2).MultiplyVec(v) != NewVec3(0.5, 1.5, 1.0) {
		t.Errorf("Unexpected component-wise product %v", Splat(2).MultiplyVec(v))
	}
}

func TestVec3_IsFinite(t *testing.T) {
	tests := []struct {
		name   string
		vector Vec3
		finite bool
	}{
		{"zero", NewVec3(0, 0, 0), true},
		{"regular", NewVec3(1, -2, 3), true},
		{"NaN", NewVec3(math.NaN(), 0, 0), false},
		{"+Inf", NewVec3(0, math.Inf(1), 0), false},
		{"-Inf", NewVec3(0, 0, math.Inf(-1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vector.IsFinite(); got != tt.finite {
				t.Errorf("IsFinite(%v) = %v, expected %v", tt.vector, got, tt.finite)
			}
		})
	}
}

func TestRay_Parameter(t *testing.T) {
	ray := NewRay(NewVec3(1, 0, 0), NewVec3(0, 0, -2))

	// A point on the ray maps back to its parameter
	if got := ray.Parameter(ray.At(3.5)); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("Expected parameter 3.5, got %f", got)
	}

	// Off-axis points project orthogonally
	if got := ray.Parameter(NewVec3(5, 7, -4)); math.Abs(got-2) > 1e-12 {
		t.Errorf("Expected parameter 2, got %f", got)
	}

	degenerate := NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 0))
	if got := degenerate.Parameter(NewVec3(1, 1, 1)); got != 0 {
		t.Errorf("Expected 0 for zero direction, got %f", got)
	}
}
