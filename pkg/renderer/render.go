package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/df07/go-raymarcher/pkg/raymarch"
)

// ErrInvalidOptions is returned by Render for unusable image options
var ErrInvalidOptions = errors.New("invalid render options")

// Options controls how a frame is rendered
type Options struct {
	Width      int       // Image width in pixels
	Height     int       // Image height in pixels
	Workers    int       // Rows rendered concurrently, 0 for GOMAXPROCS
	Seed       uint64    // Base seed for per-pixel jitter
	NearClip   float64   // Ray TMin
	FarClip    float64   // Ray TMax, +Inf for unbounded rays
	Background core.Vec3 // Radiance seen through transparent pixels
	Gamma      float64   // Output gamma, 1 for linear
	DeepOutput bool      // Keep per-pixel deep curves in Frame.Deep
	Logger     core.Logger
}

// DefaultOptions returns sensible default values
func DefaultOptions() Options {
	return Options{
		Width:   320,
		Height:  240,
		Seed:    42,
		FarClip: 100,
		Gamma:   2.2,
		Logger:  core.NopLogger{},
	}
}

// DeepPixel holds the deep functions of one pixel
type DeepPixel struct {
	X, Y          int
	Luminance     *curve.ColorCurve
	Transmittance *curve.ColorCurve
}

// Frame is a finished render
type Frame struct {
	Image *image.RGBA
	// Deep lists the pixels whose rays integrated, in row-major order, only
	// when Options.DeepOutput is set. Failed rays have no entry, so look
	// pixels up by X and Y rather than by index.
	Deep  []DeepPixel
	Stats RenderStats
}

// rowResult is what one worker produces for one image row
type rowResult struct {
	stats RenderStats
	deep  []DeepPixel
	luma  float64
}

// Render integrates one ray per pixel through the camera and composites the
// result over the background. Rays that fail are counted in
// RenderStats.FailedRays and show the background; the frame still completes.
// Render returns early only when ctx is cancelled.
func Render(ctx context.Context, marcher raymarch.Raymarcher, camera *Camera, opts Options) (*Frame, error) {
	tracer := otel.Tracer("github.com/df07/go-raymarcher/pkg/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "renderer.Render", trace.WithAttributes(
		attribute.Int("width", opts.Width),
		attribute.Int("height", opts.Height),
		attribute.Bool("deep", opts.DeepOutput),
	))
	defer span.End()

	if opts.Width <= 0 || opts.Height <= 0 {
		err := fmt.Errorf("%w: %dx%d image", ErrInvalidOptions, opts.Width, opts.Height)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	rows := make([]rowResult, opts.Height)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := range opts.Height {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[y] = renderRow(marcher, camera, opts, img, y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("rendering rows: %w", err)
	}

	frame := &Frame{Image: img}
	var luma float64
	for _, row := range rows {
		frame.Stats.add(row.stats)
		frame.Deep = append(frame.Deep, row.deep...)
		luma += row.luma
	}
	frame.Stats.AverageLuminance = luma / float64(opts.Width*opts.Height)
	frame.Stats.Duration = time.Since(start)
	frame.Stats.finish()
	instrumentFrame(frame.Stats)

	span.SetAttributes(
		attribute.Int("steps", frame.Stats.TotalSteps),
		attribute.Int("failed_rays", frame.Stats.FailedRays),
	)
	if frame.Stats.FailedRays > 0 {
		opts.Logger.Printf("render: %d of %d rays failed\n", frame.Stats.FailedRays, frame.Stats.TotalPixels)
	}
	return frame, nil
}

// NewPixelState returns the ray state Render uses for pixel (x, y)
func NewPixelState(camera *Camera, x, y int, opts Options) core.RayState {
	state := core.NewRayState(camera.PixelRay(x, y))
	state.TMin = opts.NearClip
	state.TMax = opts.FarClip
	state.DeepOutput = opts.DeepOutput
	state.Seed = core.PixelSeed(x, y, opts.Seed)
	state.Projector = camera
	return state
}

// renderRow integrates every pixel of row y. Rows write disjoint parts of img.
func renderRow(marcher raymarch.Raymarcher, camera *Camera, opts Options, img *image.RGBA, y int) rowResult {
	var row rowResult
	for x := range opts.Width {
		state := NewPixelState(camera, x, y, opts)
		pixel := opts.Background
		result, err := marcher.Integrate(&state)
		row.stats.TotalPixels++
		if err != nil {
			row.stats.FailedRays++
			opts.Logger.Printf("render: pixel (%d, %d): %v\n", x, y, err)
		} else {
			pixel = result.Luminance.Add(result.Transmittance.MultiplyVec(opts.Background))
			row.stats.TotalSteps += result.Stats.Steps
			row.stats.MaxSteps = max(row.stats.MaxSteps, result.Stats.Steps)
			row.stats.SamplerFailures += result.Stats.SamplerFailures
			if result.Stats.EarlyTerminated {
				row.stats.EarlyTerminated++
			}
			stepsPerRay.Observe(float64(result.Stats.Steps))
			if opts.DeepOutput {
				row.deep = append(row.deep, DeepPixel{
					X:             x,
					Y:             y,
					Luminance:     result.LuminanceFunction,
					Transmittance: result.TransmittanceFunction,
				})
			}
		}

		pixel = pixel.Clamp(0, 1)
		row.luma += pixel.Luminance()
		img.SetRGBA(x, y, toRGBA(pixel, opts.Gamma))
	}
	return row
}

// toRGBA converts a linear color in [0, 1] to 8-bit sRGB-ish output
func toRGBA(c core.Vec3, gamma float64) color.RGBA {
	if gamma > 0 && gamma != 1 {
		c = c.GammaCorrect(gamma)
	}
	return color.RGBA{
		R: uint8(math.Round(c.X * 255)),
		G: uint8(math.Round(c.Y * 255)),
		B: uint8(math.Round(c.Z * 255)),
		A: 255,
	}
}

// CalculateAverageLuminance returns the mean luminance of an image in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += core.NewVec3(float64(r), float64(g), float64(b)).Multiply(1.0 / 0xffff).Luminance()
		}
	}
	return total / float64(n)
}
