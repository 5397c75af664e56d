// go-raymarcher renders and inspects volumetric scenes with the raymarch
// integrator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/pkg/renderer"
	"github.com/df07/go-raymarcher/pkg/volume"
)

// glogLogger adapts glog to core.Logger, tagging lines with the run ID
type glogLogger struct {
	runID string
}

func (l glogLogger) Printf(format string, args ...interface{}) {
	glog.Infof("[%s] %s", l.runID, strings.TrimSuffix(fmt.Sprintf(format, args...), "\n"))
}

var cmdRoot = &cobra.Command{
	Use:           "go-raymarcher",
	Short:         "Volumetric raymarch renderer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath  string
	sceneName   string
	enableTrace bool
	metricsAddr string
)

func init() {
	cmdRoot.PersistentFlags().StringVar(&configPath, "config", "", "YAML raymarch config; defaults are used when empty")
	cmdRoot.PersistentFlags().StringVar(&sceneName, "scene", "cloud", "Built-in scene: "+strings.Join(volume.Names(), ", "))
	cmdRoot.PersistentFlags().BoolVar(&enableTrace, "trace", false, "Print OpenTelemetry spans to stderr")
	cmdRoot.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

var (
	renderWidth   int
	renderHeight  int
	renderWorkers int
	renderOutput  string
	renderDeep    bool
)

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a scene to a PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRun(cmd.Context(), func(ctx context.Context, logger core.Logger) error {
			return runRender(ctx, logger, renderArgs{
				scene:   sceneName,
				config:  configPath,
				width:   renderWidth,
				height:  renderHeight,
				workers: renderWorkers,
				output:  renderOutput,
				deep:    renderDeep,
			}, cmd.OutOrStdout())
		})
	},
}

func init() {
	cmdRender.Flags().IntVar(&renderWidth, "width", 320, "Image width in pixels")
	cmdRender.Flags().IntVar(&renderHeight, "height", 240, "Image height in pixels")
	cmdRender.Flags().IntVar(&renderWorkers, "workers", 0, "Rows rendered concurrently, 0 for all CPUs")
	cmdRender.Flags().StringVar(&renderOutput, "output", "", "PNG path; defaults to output/<scene>/render_<timestamp>.png")
	cmdRender.Flags().BoolVar(&renderDeep, "deep", false, "Also write per-pixel deep curves next to the image as YAML")
}

var (
	probeX      int
	probeY      int
	probeWidth  int
	probeHeight int
)

var cmdProbe = &cobra.Command{
	Use:   "probe",
	Short: "Integrate a single pixel with deep output and print the result as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRun(cmd.Context(), func(ctx context.Context, logger core.Logger) error {
			return runProbe(logger, probeArgs{
				scene:  sceneName,
				config: configPath,
				x:      probeX,
				y:      probeY,
				width:  probeWidth,
				height: probeHeight,
			}, cmd.OutOrStdout())
		})
	},
}

func init() {
	cmdProbe.Flags().IntVar(&probeX, "x", 160, "Pixel column")
	cmdProbe.Flags().IntVar(&probeY, "y", 120, "Pixel row")
	cmdProbe.Flags().IntVar(&probeWidth, "width", 320, "Image width the pixel belongs to")
	cmdProbe.Flags().IntVar(&probeHeight, "height", 240, "Image height the pixel belongs to")
}

var cmdConfig = &cobra.Command{
	Use:   "config",
	Short: "Print the effective raymarch config as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(configPath, cmd.OutOrStdout())
	},
}

// withRun sets up the per-invocation run ID, tracing and metrics endpoint
func withRun(ctx context.Context, run func(ctx context.Context, logger core.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.New().String()
	logger := glogLogger{runID: runID}

	if enableTrace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("while creating trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				glog.Errorf("Failed to flush traces: %v", err)
			}
		}()
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorf("Metrics server stopped: %v", err)
			}
		}()
		defer server.Close()
		logger.Printf("serving metrics on %s/metrics", metricsAddr)
	}

	ctx, span := otel.Tracer("github.com/df07/go-raymarcher").Start(ctx, "go-raymarcher.run",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	return run(ctx, logger)
}

// loadScene builds the named scene and a marcher sampling it
func loadScene(name, config string, logger core.Logger) (*volume.Scene, raymarch.Raymarcher, error) {
	scene, err := volume.Builtin(name)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := raymarch.LoadConfig(config)
	if err != nil {
		return nil, nil, err
	}
	marcher, err := raymarch.New(cfg, scene, raymarch.WithSampler(scene), raymarch.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("while creating raymarcher: %w", err)
	}
	return scene, marcher, nil
}

func sceneCamera(scene *volume.Scene, width, height int) *renderer.Camera {
	return renderer.NewCamera(renderer.CameraConfig{
		Center: scene.View.From,
		LookAt: scene.View.At,
		Up:     scene.View.Up,
		Width:  width,
		Height: height,
		VFov:   scene.View.VFov,
	})
}

type renderArgs struct {
	scene, config string
	width, height int
	workers       int
	output        string
	deep          bool
}

func runRender(ctx context.Context, logger core.Logger, args renderArgs, out io.Writer) error {
	scene, marcher, err := loadScene(args.scene, args.config, logger)
	if err != nil {
		return err
	}

	opts := renderer.DefaultOptions()
	opts.Width = args.width
	opts.Height = args.height
	opts.Workers = args.workers
	opts.Background = scene.Background
	opts.DeepOutput = args.deep
	opts.Logger = logger

	frame, err := renderer.Render(ctx, marcher, sceneCamera(scene, args.width, args.height), opts)
	if err != nil {
		return fmt.Errorf("while rendering %s: %w", args.scene, err)
	}

	output := args.output
	if output == "" {
		timestamp := time.Now().Format("20060102_150405")
		output = filepath.Join("output", args.scene, fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := writePNG(output, frame); err != nil {
		return err
	}
	if args.deep {
		deepPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".deep.yaml"
		if err := writeDeep(deepPath, frame.Deep); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deep curves saved as %s\n", deepPath)
	}

	fmt.Fprintf(out, "Render completed in %v\n", frame.Stats.Duration)
	fmt.Fprintf(out, "Steps per pixel: %.1f (max %d), failed rays: %d\n",
		frame.Stats.AverageSteps, frame.Stats.MaxSteps, frame.Stats.FailedRays)
	fmt.Fprintf(out, "Render saved as %s\n", output)
	return nil
}

func writePNG(path string, frame *renderer.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("while creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, frame.Image); err != nil {
		return fmt.Errorf("while encoding %s: %w", path, err)
	}
	return nil
}

// deepPixelRecord is the YAML form of one pixel's deep curves
type deepPixelRecord struct {
	X             int          `yaml:"x"`
	Y             int          `yaml:"y"`
	Luminance     []curve.Knot `yaml:"luminance"`
	Transmittance []curve.Knot `yaml:"transmittance"`
}

func writeDeep(path string, pixels []renderer.DeepPixel) error {
	records := make([]deepPixelRecord, 0, len(pixels))
	for _, p := range pixels {
		records = append(records, deepPixelRecord{
			X:             p.X,
			Y:             p.Y,
			Luminance:     p.Luminance.Knots(),
			Transmittance: p.Transmittance.Knots(),
		})
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("while encoding deep curves: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("while writing %s: %w", path, err)
	}
	return nil
}

type probeArgs struct {
	scene, config string
	x, y          int
	width, height int
}

// probeReport is what probe prints for one pixel
type probeReport struct {
	Scene         string            `yaml:"scene"`
	Pixel         [2]int            `yaml:"pixel"`
	Luminance     core.Vec3         `yaml:"luminance"`
	Transmittance core.Vec3         `yaml:"transmittance"`
	Stats         raymarch.RayStats `yaml:"stats"`
	Diagnostics   []string          `yaml:"diagnostics,omitempty"`
	LuminanceFn   []curve.Knot      `yaml:"luminance_function"`
	TransmitFn    []curve.Knot      `yaml:"transmittance_function"`
}

func runProbe(logger core.Logger, args probeArgs, out io.Writer) error {
	if args.x < 0 || args.x >= args.width || args.y < 0 || args.y >= args.height {
		return fmt.Errorf("pixel (%d, %d) outside %dx%d image", args.x, args.y, args.width, args.height)
	}
	scene, marcher, err := loadScene(args.scene, args.config, logger)
	if err != nil {
		return err
	}

	camera := sceneCamera(scene, args.width, args.height)
	opts := renderer.DefaultOptions()
	opts.DeepOutput = true
	state := renderer.NewPixelState(camera, args.x, args.y, opts)

	result, err := marcher.Integrate(&state)
	if err != nil {
		return fmt.Errorf("while integrating pixel (%d, %d): %w", args.x, args.y, err)
	}

	report := probeReport{
		Scene:         args.scene,
		Pixel:         [2]int{args.x, args.y},
		Luminance:     result.Luminance,
		Transmittance: result.Transmittance,
		Stats:         result.Stats,
		LuminanceFn:   result.LuminanceFunction.Knots(),
		TransmitFn:    result.TransmittanceFunction.Knots(),
	}
	for _, d := range result.Diagnostics {
		report.Diagnostics = append(report.Diagnostics, d.String())
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(report)
}

func printConfig(path string, out io.Writer) error {
	cfg, err := raymarch.LoadConfig(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(cfg)
}

func main() {
	// glog complains unless the standard flag set has been parsed
	flag.CommandLine.Parse([]string{})
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	defer glog.Flush()

	cmdRoot.AddCommand(cmdRender, cmdProbe, cmdConfig)
	if err := cmdRoot.Execute(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}
