package core

import (
	"math"
	"testing"
)

func TestAABB_Clip(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name   string
		ray    Ray
		tMin   float64
		tMax   float64
		hit    bool
		t0, t1 float64
	}{
		{
			name: "through center",
			ray:  NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)),
			tMin: 0, tMax: math.Inf(1),
			hit: true, t0: 4, t1: 6,
		},
		{
			name: "origin inside",
			ray:  NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)),
			tMin: 0, tMax: math.Inf(1),
			hit: true, t0: 0, t1: 1,
		},
		{
			name: "restricted by tMax",
			ray:  NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)),
			tMin: 0, tMax: 5,
			hit: true, t0: 4, t1: 5,
		},
		{
			name: "miss",
			ray:  NewRay(NewVec3(3, 0, 5), NewVec3(0, 0, -1)),
			tMin: 0, tMax: math.Inf(1),
			hit: false,
		},
		{
			name: "behind origin",
			ray:  NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)),
			tMin: 0, tMax: math.Inf(1),
			hit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t0, t1, hit := box.Clip(tt.ray, tt.tMin, tt.tMax)
			if hit != tt.hit {
				t.Fatalf("Expected hit=%v, got %v", tt.hit, hit)
			}
			if !hit {
				return
			}
			if math.Abs(t0-tt.t0) > 1e-9 || math.Abs(t1-tt.t1) > 1e-9 {
				t.Errorf("Expected [%f, %f], got [%f, %f]", tt.t0, tt.t1, t0, t1)
			}
		})
	}
}

func TestAABB_FromPointsAndContains(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(1, 2, 3), NewVec3(-1, 0, 5), NewVec3(0, 4, 4))
	if box.Min != NewVec3(-1, 0, 3) || box.Max != NewVec3(1, 4, 5) {
		t.Fatalf("Unexpected bounds %v", box)
	}
	if !box.Contains(NewVec3(0, 2, 4)) {
		t.Error("Expected center to be contained")
	}
	if box.Contains(NewVec3(2, 2, 4)) {
		t.Error("Expected outside point not to be contained")
	}
	if !box.IsValid() {
		t.Error("Expected valid box")
	}
}
