package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const resultLabel = "result"

// Ray outcomes recorded under resultLabel
const (
	rayResultOK     = "ok"
	rayResultFailed = "failed"
)

var (
	raysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raymarch_rays_total",
		Help: "Total camera rays integrated, by result",
	}, []string{resultLabel})

	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raymarch_steps_total",
		Help: "Total marching steps taken",
	})

	samplerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raymarch_sampler_failures_total",
		Help: "Steps skipped because the sampler failed or returned a non-finite sample",
	})

	earlyTerminationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raymarch_early_terminations_total",
		Help: "Rays that stopped marching once they became opaque",
	})

	stepsPerRay = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raymarch_steps_per_ray",
		Help:    "Marching steps taken per ray",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raymarch_render_duration_seconds",
		Help:    "Wall time spent rendering a frame",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

func instrumentFrame(stats RenderStats) {
	raysTotal.With(prometheus.Labels{resultLabel: rayResultOK}).Add(float64(stats.TotalPixels - stats.FailedRays))
	raysTotal.With(prometheus.Labels{resultLabel: rayResultFailed}).Add(float64(stats.FailedRays))
	stepsTotal.Add(float64(stats.TotalSteps))
	samplerFailuresTotal.Add(float64(stats.SamplerFailures))
	earlyTerminationsTotal.Add(float64(stats.EarlyTerminated))
	renderDuration.Observe(stats.Duration.Seconds())
}
