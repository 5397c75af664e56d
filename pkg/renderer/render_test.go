package renderer

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/pkg/volume"
)

// stubMarcher returns whatever integrate computes for each ray
type stubMarcher struct {
	integrate func(state *core.RayState) (raymarch.IntegrationResult, error)
}

func (m *stubMarcher) SetSampler(sampler raymarch.Sampler) {}

func (m *stubMarcher) Integrate(state *core.RayState) (raymarch.IntegrationResult, error) {
	return m.integrate(state)
}

func constantMarcher(L, T core.Vec3, steps int) *stubMarcher {
	return &stubMarcher{integrate: func(state *core.RayState) (raymarch.IntegrationResult, error) {
		result := raymarch.NewIntegrationResult()
		result.Luminance = L
		result.Transmittance = T
		result.Stats.Steps = steps
		return result, nil
	}}
}

func testOptions(width, height int) Options {
	opts := DefaultOptions()
	opts.Width = width
	opts.Height = height
	opts.Workers = 3
	opts.Gamma = 1
	return opts
}

func testCamera(opts Options) *Camera {
	config := testCameraConfig()
	config.Width = opts.Width
	config.Height = opts.Height
	return NewCamera(config)
}

func TestRender_CompositesOverBackground(t *testing.T) {
	opts := testOptions(4, 3)
	opts.Background = core.NewVec3(1, 0, 0.4)

	marcher := constantMarcher(core.NewVec3(0, 0.2, 0.1), core.Splat(0.5), 7)
	frame, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)

	// L + T * background = (0.5, 0.2, 0.3)
	expected := color.RGBA{R: 128, G: 51, B: 77, A: 255}
	for y := range 3 {
		for x := range 4 {
			assert.Equal(t, expected, frame.Image.RGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}

	assert.Equal(t, 12, frame.Stats.TotalPixels)
	assert.Equal(t, 84, frame.Stats.TotalSteps)
	assert.Equal(t, 7, frame.Stats.MaxSteps)
	assert.Equal(t, 7.0, frame.Stats.AverageSteps)
	assert.Zero(t, frame.Stats.FailedRays)
	assert.Nil(t, frame.Deep)
}

func TestRender_RayState(t *testing.T) {
	opts := testOptions(5, 4)
	opts.NearClip = 0.5
	opts.FarClip = 30
	camera := testCamera(opts)

	seeds := make(chan uint64, opts.Width*opts.Height)
	marcher := &stubMarcher{integrate: func(state *core.RayState) (raymarch.IntegrationResult, error) {
		assert.Equal(t, 0.5, state.TMin)
		assert.Equal(t, 30.0, state.TMax)
		assert.False(t, state.DeepOutput)
		assert.Same(t, camera, state.Projector)
		seeds <- state.Seed
		return raymarch.NewIntegrationResult(), nil
	}}

	_, err := Render(context.Background(), marcher, camera, opts)
	require.NoError(t, err)
	close(seeds)

	unique := map[uint64]bool{}
	for seed := range seeds {
		unique[seed] = true
	}
	assert.Len(t, unique, opts.Width*opts.Height)
}

func TestRender_FailedRaysShowBackground(t *testing.T) {
	opts := testOptions(4, 2)
	opts.Background = core.Splat(1)

	boom := errors.New("boom")
	marcher := &stubMarcher{integrate: func(state *core.RayState) (raymarch.IntegrationResult, error) {
		// The left column fails
		if state.Ray.Direction.X < -0.5 {
			return raymarch.NewIntegrationResult(), boom
		}
		result := raymarch.NewIntegrationResult()
		result.Transmittance = core.Splat(0)
		return result, nil
	}}

	frame, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Stats.FailedRays)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, frame.Image.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.Image.RGBAAt(3, 1))
}

func TestRender_DeepSkipsFailedRays(t *testing.T) {
	opts := testOptions(4, 2)
	opts.DeepOutput = true

	marcher := &stubMarcher{integrate: func(state *core.RayState) (raymarch.IntegrationResult, error) {
		if state.Ray.Direction.X < -0.5 {
			return raymarch.NewIntegrationResult(), errors.New("boom")
		}
		return raymarch.NewIntegrationResult(), nil
	}}

	frame, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Stats.FailedRays)

	var got [][2]int
	for _, p := range frame.Deep {
		got = append(got, [2]int{p.X, p.Y})
	}
	assert.Equal(t, [][2]int{{1, 0}, {2, 0}, {3, 0}, {1, 1}, {2, 1}, {3, 1}}, got)
}

func TestRender_InvalidOptions(t *testing.T) {
	opts := testOptions(0, 10)
	_, err := Render(context.Background(), constantMarcher(core.Vec3{}, core.Splat(1), 0), testCamera(opts), opts)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := testOptions(8, 8)
	_, err := Render(ctx, constantMarcher(core.Vec3{}, core.Splat(1), 0), testCamera(opts), opts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRender_DeepOutput(t *testing.T) {
	scene := volume.NewFireScene()
	config := raymarch.DefaultConfig()
	config.StepLength = 0.1
	marcher, err := raymarch.New(config, scene, raymarch.WithSampler(scene))
	require.NoError(t, err)

	opts := testOptions(6, 4)
	opts.DeepOutput = true
	camera := NewCamera(CameraConfig{
		Center: scene.View.From,
		LookAt: scene.View.At,
		Up:     scene.View.Up,
		Width:  opts.Width,
		Height: opts.Height,
		VFov:   scene.View.VFov,
	})

	frame, err := Render(context.Background(), marcher, camera, opts)
	require.NoError(t, err)
	require.Len(t, frame.Deep, 24)

	for i, pixel := range frame.Deep {
		assert.Equal(t, i%opts.Width, pixel.X)
		assert.Equal(t, i/opts.Width, pixel.Y)
		require.NotNil(t, pixel.Luminance)
		require.NotNil(t, pixel.Transmittance)
		assert.True(t, pixel.Transmittance.IsMonotonic())

		// Every curve reaches the far clip plane in camera depth
		last, ok := pixel.Transmittance.Last()
		require.True(t, ok)
		assert.GreaterOrEqual(t, last.Depth, opts.FarClip-1e-9)
	}
	assert.Positive(t, frame.Stats.TotalSteps)
}

func TestRender_Deterministic(t *testing.T) {
	scene := volume.NewCloudScene()
	marcher, err := raymarch.New(raymarch.DefaultConfig(), scene, raymarch.WithSampler(scene))
	require.NoError(t, err)

	opts := testOptions(8, 6)
	opts.Workers = 4
	first, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)

	opts.Workers = 1
	second, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Image.Pix, second.Image.Pix)
	assert.Equal(t, first.Stats.TotalSteps, second.Stats.TotalSteps)
}

func TestRender_Metrics(t *testing.T) {
	okRays := raysTotal.With(prometheus.Labels{resultLabel: rayResultOK})
	failedRays := raysTotal.With(prometheus.Labels{resultLabel: rayResultFailed})
	okBefore := testutil.ToFloat64(okRays)
	failedBefore := testutil.ToFloat64(failedRays)
	stepsBefore := testutil.ToFloat64(stepsTotal)

	opts := testOptions(3, 2)
	marcher := &stubMarcher{integrate: func(state *core.RayState) (raymarch.IntegrationResult, error) {
		if state.Ray.Direction.Y > 0 {
			return raymarch.NewIntegrationResult(), errors.New("boom")
		}
		result := raymarch.NewIntegrationResult()
		result.Stats.Steps = 5
		return result, nil
	}}

	_, err := Render(context.Background(), marcher, testCamera(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(okRays)-okBefore)
	assert.Equal(t, 3.0, testutil.ToFloat64(failedRays)-failedBefore)
	assert.Equal(t, 15.0, testutil.ToFloat64(stepsTotal)-stepsBefore)
}
