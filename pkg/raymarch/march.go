package raymarch

import (
	"fmt"
	"math"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/df07/go-raymarcher/pkg/deep"
	"github.com/df07/go-raymarcher/pkg/interval"
)

// maxDiagnostics caps the diagnostics kept per ray; failures beyond it are
// still counted in RayStats.
const maxDiagnostics = 16

// stepSnap is the relative leftover below which a step is stretched to the interval end
const stepSnap = 1e-6

// stepPolicy decides step lengths for a marcher variant
type stepPolicy interface {
	// initialStep returns the first step length used inside iv
	initialStep(iv interval.Interval) float64
	// nextStep returns the step following one of length current that took
	// transmittance from before to after
	nextStep(current float64, before, after core.Vec3) float64
}

// marcher is the marching loop shared by all variants
type marcher struct {
	config  Config
	source  IntervalSource
	sampler Sampler
	logger  core.Logger
	policy  stepPolicy
}

func newMarcher(config Config, source IntervalSource, policy stepPolicy, opts []Option) marcher {
	m := marcher{
		config: config,
		source: source,
		logger: core.NopLogger{},
		policy: policy,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// SetSampler sets the raymarch sampler to use during integration
func (m *marcher) SetSampler(sampler Sampler) {
	m.sampler = sampler
}

// rayIntegration is the mutable state of one Integrate call
type rayIntegration struct {
	state  *core.RayState
	result IntegrationResult
	L, T   core.Vec3
	lf, tf *curve.ColorCurve
	jitter core.StepJitter
	logged bool
}

func (r *rayIntegration) diagnose(d Diagnostic) {
	if len(r.result.Diagnostics) < maxDiagnostics {
		r.result.Diagnostics = append(r.result.Diagnostics, d)
	}
}

// Integrate marches the ray front to back through the disjoint intervals of
// its candidate set and composites each step as
//
//	L += T * Ls * h
//	T *= exp(-sigma * h)
//
// so a step's emission is attenuated by everything in front of it but not
// by itself.
func (m *marcher) Integrate(state *core.RayState) (IntegrationResult, error) {
	if m.sampler == nil {
		return NewIntegrationResult(), ErrNoSampler
	}
	if m.source == nil {
		return NewIntegrationResult(), ErrNoIntervalSource
	}

	r := rayIntegration{
		state:  state,
		result: NewIntegrationResult(),
		T:      core.Splat(1),
		jitter: core.NewStepJitter(state.Seed, m.config.Jitter),
	}

	intervals := m.plan(&r)
	r.result.Stats.Intervals = len(intervals)

	start := state.TMin
	if math.IsInf(start, 0) || math.IsNaN(start) {
		start = 0
	}
	if len(intervals) > 0 {
		start = intervals[0].Min
	}
	firstDepth := state.Depth(state.Ray.At(start))
	var err error
	if r.lf, err = deep.SetupLuminanceCurve(state, firstDepth, m.config.MaxDeepKnots); err != nil {
		return NewIntegrationResult(), fmt.Errorf("setting up deep luminance: %w", err)
	}
	if r.tf, err = deep.SetupTransmittanceCurve(state, firstDepth, m.config.MaxDeepKnots); err != nil {
		return NewIntegrationResult(), fmt.Errorf("setting up deep transmittance: %w", err)
	}

	for _, iv := range intervals {
		done, err := m.marchInterval(&r, iv)
		if err != nil {
			return NewIntegrationResult(), err
		}
		if done {
			break
		}
	}

	// Deep curves must cover the ray up to its far bound, including when the
	// march stopped early.
	fallback := firstDepth
	if n := len(intervals); n > 0 {
		fallback = state.Depth(state.Ray.At(intervals[n-1].Max))
	}
	if err := deep.Extend(state.FarBound(fallback), r.L, r.T, r.lf, r.tf); err != nil {
		return NewIntegrationResult(), fmt.Errorf("closing deep functions: %w", err)
	}

	r.result.Luminance = r.L
	r.result.Transmittance = r.T
	r.result.LuminanceFunction = r.lf
	r.result.TransmittanceFunction = r.tf
	return r.result, nil
}

// plan splits the candidate intervals and clips them to the ray bounds
func (m *marcher) plan(r *rayIntegration) []interval.Interval {
	split := interval.Split(m.source.Intervals(r.state))

	planned := split[:0]
	for _, iv := range split {
		clipped, ok := iv.Clip(r.state.TMin, r.state.TMax)
		if !ok {
			continue
		}
		if math.IsInf(clipped.Min, 0) || math.IsInf(clipped.Max, 0) {
			r.diagnose(Diagnostic{
				Kind:       DiagnosticUnboundedInterval,
				T:          clipped.Min,
				Components: clipped.Components,
			})
			continue
		}
		planned = append(planned, clipped)
	}
	return planned
}

// marchInterval steps through one interval. It reports true when the ray has
// become opaque and marching should stop.
func (m *marcher) marchInterval(r *rayIntegration, iv interval.Interval) (bool, error) {
	state := r.state
	step := m.policy.initialStep(iv)
	minStep := iv.Length() / float64(m.config.MaxStepsPerInterval)

	// Hold the deep values flat across the gap before this interval
	if err := deep.Extend(state.Depth(state.Ray.At(iv.Min)), r.L, r.T, r.lf, r.tf); err != nil {
		return true, fmt.Errorf("updating deep functions at t=%g: %w", iv.Min, err)
	}

	for t := iv.Min; t < iv.Max; {
		h := max(step, minStep)
		last := false
		// Absorb float drift so an interval never ends on a sliver step. Far
		// from the origin a step can fall below the spacing of t; it then
		// becomes the last one so the march still advances.
		if remaining := iv.Max - t; h >= remaining || remaining-h < h*stepSnap || !(t+h > t) {
			h, last = remaining, true
		}

		before := r.T
		sampleT := t + r.jitter.Get1D()*h
		sample, err := m.sampler.Sample(state, state.Ray.At(sampleT), iv.Components)
		if err == nil {
			err = sample.validate()
		}
		r.result.Stats.Steps++

		if err != nil {
			// Skip the step: no emission, full local transmittance
			r.result.Stats.SamplerFailures++
			r.diagnose(Diagnostic{
				Kind:       DiagnosticSamplerFailure,
				T:          sampleT,
				Components: iv.Components,
				Err:        err,
			})
			if !r.logged {
				m.logger.Printf("raymarch: skipping sample at t=%g: %v\n", sampleT, err)
				r.logged = true
			}
		} else {
			extinction := sample.Extinction.Max(core.Vec3{})
			r.L = r.L.Add(r.T.MultiplyVec(sample.Luminance).Multiply(h))
			r.T = r.T.MultiplyVec(extinction.Multiply(-h).Exp())
		}

		if last {
			t = iv.Max
		} else {
			t += h
		}

		if err := deep.UpdateFunctions(state, state.Ray.At(t), r.L, r.T, r.lf, r.tf); err != nil {
			return true, fmt.Errorf("updating deep functions at t=%g: %w", t, err)
		}

		if r.T.MaxComponent() < m.config.EarlyTerminationThreshold {
			r.result.Stats.EarlyTerminated = true
			r.result.Stats.TerminationDepth = t
			return true, nil
		}

		step = m.policy.nextStep(step, before, r.T)
	}

	return false, nil
}
