// Package curve stores piecewise-linear color functions of depth, the form
// deep luminance and transmittance take.
package curve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-raymarcher/pkg/core"
)

// ErrKnotLimit is returned when a curve would grow beyond its knot budget
var ErrKnotLimit = errors.New("curve knot limit reached")

// Knot is one (depth, value) sample of a curve
type Knot struct {
	Depth float64   `yaml:"depth"`
	Value core.Vec3 `yaml:"value"`
}

// ColorCurve is a piecewise-linear function from depth to color.
//
// Knots are appended in increasing depth order; the curve does not sort
// them. A *ColorCurve is the shared handle handed out with integration
// results, and a nil handle means the function was not computed.
type ColorCurve struct {
	knots    []Knot
	maxKnots int // 0 means unlimited
}

// NewColorCurve creates an empty curve. capacity pre-sizes the knot slice and
// maxKnots bounds its growth (0 for no bound).
func NewColorCurve(capacity, maxKnots int) *ColorCurve {
	if maxKnots > 0 && capacity > maxKnots {
		capacity = maxKnots
	}
	return &ColorCurve{
		knots:    make([]Knot, 0, max(capacity, 0)),
		maxKnots: maxKnots,
	}
}

// AddSample appends a knot. Depths must be strictly increasing; that is the
// caller's obligation and is not checked.
func (c *ColorCurve) AddSample(depth float64, value core.Vec3) error {
	if c.maxKnots > 0 && len(c.knots) >= c.maxKnots {
		return fmt.Errorf("adding knot at depth %g: %w", depth, ErrKnotLimit)
	}
	c.knots = append(c.knots, Knot{Depth: depth, Value: value})
	return nil
}

// NumSamples returns the number of knots
func (c *ColorCurve) NumSamples() int {
	return len(c.knots)
}

// Knots returns a copy of the knots
func (c *ColorCurve) Knots() []Knot {
	out := make([]Knot, len(c.knots))
	copy(out, c.knots)
	return out
}

// Last returns the deepest knot
func (c *ColorCurve) Last() (Knot, bool) {
	if len(c.knots) == 0 {
		return Knot{}, false
	}
	return c.knots[len(c.knots)-1], true
}

// Interpolate evaluates the curve at depth. Values are held constant before
// the first and after the last knot; an empty curve evaluates to zero.
func (c *ColorCurve) Interpolate(depth float64) core.Vec3 {
	n := len(c.knots)
	if n == 0 {
		return core.Vec3{}
	}
	if depth <= c.knots[0].Depth {
		return c.knots[0].Value
	}
	if depth >= c.knots[n-1].Depth {
		return c.knots[n-1].Value
	}

	// First knot strictly beyond depth
	i := sort.Search(n, func(i int) bool { return c.knots[i].Depth > depth })
	a, b := c.knots[i-1], c.knots[i]
	span := b.Depth - a.Depth
	if span <= 0 {
		return b.Value
	}
	w := (depth - a.Depth) / span
	return a.Value.Multiply(1 - w).Add(b.Value.Multiply(w))
}

// IsMonotonic reports whether knot depths are strictly increasing
func (c *ColorCurve) IsMonotonic() bool {
	for i := 1; i < len(c.knots); i++ {
		if !(c.knots[i].Depth > c.knots[i-1].Depth) {
			return false
		}
	}
	return true
}
