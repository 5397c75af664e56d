package deep

import (
	"errors"
	"testing"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(deep bool) *core.RayState {
	state := core.NewRayState(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)))
	state.DeepOutput = deep
	return &state
}

// setupCurves creates both curves for state and fails on error
func setupCurves(t *testing.T, state *core.RayState, first float64, maxKnots int) (*curve.ColorCurve, *curve.ColorCurve) {
	t.Helper()
	lf, err := SetupLuminanceCurve(state, first, maxKnots)
	require.NoError(t, err)
	tf, err := SetupTransmittanceCurve(state, first, maxKnots)
	require.NoError(t, err)
	return lf, tf
}

func TestSetup_NotRequested(t *testing.T) {
	state := newState(false)

	lf, tf := setupCurves(t, state, 1, 0)
	assert.Nil(t, lf)
	assert.Nil(t, tf)

	// Updates on nil handles are no-ops
	assert.NoError(t, UpdateFunctions(state, core.NewVec3(0, 0, -2), core.Splat(1), core.Splat(0.5), nil, nil))
	assert.NoError(t, Extend(10, core.Splat(1), core.Splat(0.5), nil, nil))
}

func TestSetup_SeedsIdentityKnots(t *testing.T) {
	state := newState(true)

	lf, tf := setupCurves(t, state, 1.5, 0)
	require.NotNil(t, lf)
	require.NotNil(t, tf)

	assert.Equal(t, []curve.Knot{{Depth: 1.5, Value: core.Splat(0)}}, lf.Knots())
	assert.Equal(t, []curve.Knot{{Depth: 1.5, Value: core.Splat(1)}}, tf.Knots())
}

func TestUpdateFunctions_UsesRayDepth(t *testing.T) {
	state := newState(true)
	lf, tf := setupCurves(t, state, 0, 0)

	require.NoError(t, UpdateFunctions(state, state.Ray.At(2), core.Splat(0.1), core.Splat(0.9), lf, tf))
	require.NoError(t, UpdateFunctions(state, state.Ray.At(3), core.Splat(0.2), core.Splat(0.8), lf, tf))

	knots := tf.Knots()
	require.Len(t, knots, 3)
	assert.InDelta(t, 2.0, knots[1].Depth, 1e-12)
	assert.InDelta(t, 3.0, knots[2].Depth, 1e-12)
	assert.Equal(t, core.Splat(0.8), knots[2].Value)
	assert.Equal(t, core.Splat(0.2), lf.Interpolate(3))
}

func TestUpdateFunctions_OnlyLuminance(t *testing.T) {
	state := newState(true)
	lf, _ := setupCurves(t, state, 0, 0)

	require.NoError(t, UpdateFunctions(state, state.Ray.At(1), core.Splat(0.3), core.Splat(0.7), lf, nil))
	assert.Equal(t, 2, lf.NumSamples())
}

func TestExtend(t *testing.T) {
	state := newState(true)
	lf, tf := setupCurves(t, state, 0, 0)
	require.NoError(t, UpdateFunctions(state, state.Ray.At(4), core.Splat(0.5), core.Splat(0.25), lf, tf))

	// Far bound behind the last knot adds nothing
	require.NoError(t, Extend(4, core.Splat(0.5), core.Splat(0.25), lf, tf))
	assert.Equal(t, 2, tf.NumSamples())

	require.NoError(t, Extend(10, core.Splat(0.5), core.Splat(0.25), lf, tf))
	last, ok := tf.Last()
	require.True(t, ok)
	assert.Equal(t, 10.0, last.Depth)
	assert.Equal(t, core.Splat(0.25), last.Value)

	depth, ok := deepest(lf, tf)
	assert.True(t, ok)
	assert.Equal(t, 10.0, depth)
	assert.True(t, lf.IsMonotonic())
}

func TestSetup_SingleKnotBudget(t *testing.T) {
	state := newState(true)

	// The seed knot fits a budget of one; the next knot does not
	lf, tf := setupCurves(t, state, 0, 1)
	assert.Equal(t, 1, lf.NumSamples())
	assert.Equal(t, 1, tf.NumSamples())
	err := UpdateFunctions(state, state.Ray.At(1), core.Splat(0), core.Splat(1), lf, tf)
	assert.ErrorIs(t, err, curve.ErrKnotLimit)
}

func TestUpdateFunctions_KnotLimit(t *testing.T) {
	state := newState(true)
	lf, tf := setupCurves(t, state, 0, 2)

	require.NoError(t, UpdateFunctions(state, state.Ray.At(1), core.Splat(0), core.Splat(1), lf, tf))
	err := UpdateFunctions(state, state.Ray.At(2), core.Splat(0), core.Splat(1), lf, tf)
	assert.True(t, errors.Is(err, curve.ErrKnotLimit))
}
