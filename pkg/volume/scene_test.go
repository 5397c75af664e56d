package volume

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/interval"
	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScene() *Scene {
	s := NewScene("test")
	s.Ambient = core.Splat(2)
	s.Add(Component{
		Name:  "absorber",
		Shape: NewSphere(core.NewVec3(0, 0, -5), 1, false),
		Medium: Medium{
			Extinction: core.NewVec3(1, 2, 3),
		},
	})
	s.Add(Component{
		Name:  "glow",
		Shape: NewBox(core.NewVec3(-1, -1, -5.5), core.NewVec3(1, 1, -7)),
		Medium: Medium{
			Extinction: core.Splat(0.5),
			Emission:   core.NewVec3(1, 0, 0),
			Albedo:     core.Splat(0.5),
		},
		StepLength: 0.1,
	})
	return s
}

func forwardRay() *core.RayState {
	state := core.NewRayState(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)))
	return &state
}

func TestScene_Intervals(t *testing.T) {
	s := testScene()

	intervals := s.Intervals(forwardRay())
	require.Len(t, intervals, 2)
	assert.Equal(t, interval.New(4, 6, 0), intervals[0])
	assert.Equal(t, interval.New(5.5, 7, 1).WithStepLength(0.1), intervals[1])

	// A ray that misses everything has no candidates
	state := core.NewRayState(core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, 0, -1)))
	assert.Empty(t, s.Intervals(&state))
}

func TestScene_IntervalsRespectRayBounds(t *testing.T) {
	s := testScene()
	state := forwardRay()
	state.TMax = 5

	intervals := s.Intervals(state)
	require.Len(t, intervals, 1)
	assert.Equal(t, 4.0, intervals[0].Min)
	assert.Equal(t, 5.0, intervals[0].Max)
}

func TestScene_Sample(t *testing.T) {
	s := testScene()
	state := forwardRay()
	p := core.NewVec3(0, 0, -5.75)

	sample, err := s.Sample(state, p, []interval.ComponentID{0, 1})
	require.NoError(t, err)
	assert.Equal(t, core.NewVec3(1.5, 2.5, 3.5), sample.Extinction)
	// Emission plus albedo * extinction * ambient from the glow box only
	assert.Equal(t, core.NewVec3(1.5, 0.5, 0.5), sample.Luminance)

	// Components whose shape has zero density at p contribute nothing
	sample, err = s.Sample(state, core.NewVec3(0, 0, -6.5), []interval.ComponentID{0, 1})
	require.NoError(t, err)
	assert.Equal(t, core.Splat(0.5), sample.Extinction)

	sample, err = s.Sample(state, p, nil)
	require.NoError(t, err)
	assert.Equal(t, raymarch.Sample{}, sample)
}

func TestScene_SampleUnknownComponent(t *testing.T) {
	s := testScene()

	_, err := s.Sample(forwardRay(), core.NewVec3(0, 0, -5), []interval.ComponentID{0, 7})
	assert.True(t, errors.Is(err, ErrUnknownComponent))

	_, err = s.Sample(forwardRay(), core.NewVec3(0, 0, -5), []interval.ComponentID{-1})
	assert.True(t, errors.Is(err, ErrUnknownComponent))
}

func TestScene_Bounds(t *testing.T) {
	s := testScene()
	s.Add(Component{Name: "floor", Shape: NewSlab(-2, -1, false)})

	bounds, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, core.NewVec3(-1, -1, -7), bounds.Min)
	assert.Equal(t, core.NewVec3(1, 1, -4), bounds.Max)

	_, ok = NewScene("empty").Bounds()
	assert.False(t, ok)
}

func TestScene_Raymarch(t *testing.T) {
	s := testScene()
	config := raymarch.DefaultConfig()
	config.Jitter = false
	config.EarlyTerminationThreshold = 0
	config.StepLength = 0.01

	m, err := raymarch.New(config, s, raymarch.WithSampler(s))
	require.NoError(t, err)

	result, err := m.Integrate(forwardRay())
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	// Optical depth: sphere 2 units, box 1.5 units at 0.5
	expected := core.NewVec3(1*2+0.75, 2*2+0.75, 3*2+0.75)
	assert.InDelta(t, math.Exp(-expected.X), result.Transmittance.X, 1e-9)
	assert.InDelta(t, math.Exp(-expected.Y), result.Transmittance.Y, 1e-9)
	assert.InDelta(t, math.Exp(-expected.Z), result.Transmittance.Z, 1e-9)
	assert.Greater(t, result.Luminance.X, result.Luminance.Y)
}

func TestBuiltin(t *testing.T) {
	assert.Equal(t, []string{"cloud", "fire", "fog"}, Names())

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)
			assert.NotEmpty(t, s.Components)

			// The suggested view looks into the media
			view := s.View
			state := core.NewRayState(core.NewRay(view.From, view.At.Subtract(view.From)))
			state.TMax = 100
			assert.NotEmpty(t, s.Intervals(&state))
		})
	}

	_, err := Builtin("nebula")
	assert.True(t, errors.Is(err, ErrUnknownScene))
}
