// Package interval models depth ranges along a ray and resolves overlapping
// ranges into a disjoint traversal plan.
package interval

import (
	"fmt"
	"math"
)

// ComponentID identifies the volume component that produced an interval.
// It is an index into the scene's component list; intervals never own the
// component they refer to.
type ComponentID int

// Interval is a half-open depth range [Min, Max) along a single ray
type Interval struct {
	Min        float64
	Max        float64
	Components []ComponentID // Active components over the range, sorted and unique after Split
	StepLength float64       // Optional step size hint, 0 means use the marcher default
}

// New creates an interval produced by a single component
func New(min, max float64, component ComponentID) Interval {
	return Interval{Min: min, Max: max, Components: []ComponentID{component}}
}

// WithStepLength returns a copy of the interval carrying a step size hint
func (iv Interval) WithStepLength(step float64) Interval {
	iv.StepLength = step
	return iv
}

// Length returns Max - Min
func (iv Interval) Length() float64 {
	return iv.Max - iv.Min
}

// IsDegenerate reports whether the interval has NaN bounds or no positive extent
func (iv Interval) IsDegenerate() bool {
	return math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || !(iv.Max > iv.Min)
}

// Contains reports whether t lies inside [Min, Max)
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Min && t < iv.Max
}

// HasComponent reports whether id is among the interval's components
func (iv Interval) HasComponent(id ComponentID) bool {
	for _, c := range iv.Components {
		if c == id {
			return true
		}
	}
	return false
}

// Clip restricts the interval to [tMin, tMax]. The second return value is
// false when nothing of positive length is left.
func (iv Interval) Clip(tMin, tMax float64) (Interval, bool) {
	if tMin > iv.Min {
		iv.Min = tMin
	}
	if tMax < iv.Max {
		iv.Max = tMax
	}
	if iv.IsDegenerate() {
		return Interval{}, false
	}
	return iv, true
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g)%v", iv.Min, iv.Max, iv.Components)
}
