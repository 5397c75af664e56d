// Package deep builds the per-ray luminance and transmittance functions of
// depth used for deep compositing.
//
// Curves are only allocated when the ray asks for deep output; the common
// path gets nil handles and every update becomes a no-op.
package deep

import (
	"fmt"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
)

// initialCapacity pre-sizes curves for a typical march
const initialCapacity = 64

// SetupLuminanceCurve returns a new luminance curve seeded with zero at depth
// first, or nil when the ray did not request deep output. maxKnots bounds the
// curve size (0 for no bound).
func SetupLuminanceCurve(state *core.RayState, first float64, maxKnots int) (*curve.ColorCurve, error) {
	return setup(state, first, maxKnots, core.Splat(0))
}

// SetupTransmittanceCurve returns a new transmittance curve seeded with full
// transmission at depth first, or nil when the ray did not request deep output.
func SetupTransmittanceCurve(state *core.RayState, first float64, maxKnots int) (*curve.ColorCurve, error) {
	return setup(state, first, maxKnots, core.Splat(1))
}

func setup(state *core.RayState, first float64, maxKnots int, identity core.Vec3) (*curve.ColorCurve, error) {
	if !state.DeepOutput {
		return nil, nil
	}
	c := curve.NewColorCurve(initialCapacity, maxKnots)
	if err := c.AddSample(first, identity); err != nil {
		return nil, fmt.Errorf("seeding curve: %w", err)
	}
	return c, nil
}

// UpdateFunctions appends the running luminance L and transmittance T at the
// depth of world-space position wsP to whichever curves are non-nil.
//
// Depths must arrive in strictly increasing order. The curves do not re-sort,
// so calling this out of order leaves them unordered.
func UpdateFunctions(state *core.RayState, wsP core.Vec3, L, T core.Vec3, lf, tf *curve.ColorCurve) error {
	if lf == nil && tf == nil {
		return nil
	}
	return appendKnots(state.Depth(wsP), L, T, lf, tf)
}

// Extend appends the current values at depth when it lies beyond the last
// knot. It closes the curves at the far bound of a ray and keeps them flat
// across stretches where nothing was marched.
func Extend(far float64, L, T core.Vec3, lf, tf *curve.ColorCurve) error {
	if lf == nil && tf == nil {
		return nil
	}
	if last, ok := deepest(lf, tf); ok && !(far > last) {
		return nil
	}
	return appendKnots(far, L, T, lf, tf)
}

func deepest(lf, tf *curve.ColorCurve) (float64, bool) {
	depth, found := 0.0, false
	for _, c := range []*curve.ColorCurve{lf, tf} {
		if c == nil {
			continue
		}
		if k, ok := c.Last(); ok && (!found || k.Depth > depth) {
			depth, found = k.Depth, true
		}
	}
	return depth, found
}

func appendKnots(depth float64, L, T core.Vec3, lf, tf *curve.ColorCurve) error {
	if lf != nil {
		if err := lf.AddSample(depth, L); err != nil {
			return err
		}
	}
	if tf != nil {
		if err := tf.AddSample(depth, T); err != nil {
			return err
		}
	}
	return nil
}
