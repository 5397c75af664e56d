package raymarch

import (
	"fmt"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/df07/go-raymarcher/pkg/interval"
)

// IntegrationResult stores the result of a single fired ray
type IntegrationResult struct {
	Luminance     core.Vec3 // Ray's incoming radiance
	Transmittance core.Vec3 // Ray's total transmittance

	// Deep functions of depth. Nil unless the ray requested deep output.
	// The raymarcher does not touch them after Integrate returns.
	LuminanceFunction     *curve.ColorCurve
	TransmittanceFunction *curve.ColorCurve

	Stats       RayStats
	Diagnostics []Diagnostic // Non-fatal problems met along the ray, nil when there were none
}

// NewIntegrationResult returns the result of an empty ray: no light, full transmission
func NewIntegrationResult() IntegrationResult {
	return IntegrationResult{Transmittance: core.Splat(1)}
}

// NewDeepIntegrationResult bundles final values with their deep functions
func NewDeepIntegrationResult(L core.Vec3, lf *curve.ColorCurve, T core.Vec3, tf *curve.ColorCurve) IntegrationResult {
	return IntegrationResult{
		Luminance:             L,
		Transmittance:         T,
		LuminanceFunction:     lf,
		TransmittanceFunction: tf,
	}
}

// Alpha returns the opacity implied by the transmittance
func (r IntegrationResult) Alpha() core.Vec3 {
	return core.Splat(1).Subtract(r.Transmittance)
}

// RayStats counts the work done for one ray
type RayStats struct {
	Intervals        int     `yaml:"intervals"`         // Disjoint intervals marched
	Steps            int     `yaml:"steps"`             // Sampler invocations
	SamplerFailures  int     `yaml:"sampler_failures"`  // Samples skipped because of errors
	EarlyTerminated  bool    `yaml:"early_terminated"`  // March stopped on opacity
	TerminationDepth float64 `yaml:"termination_depth"` // Ray parameter where marching stopped
}

// DiagnosticKind classifies non-fatal problems
type DiagnosticKind int

const (
	// DiagnosticSamplerFailure: the sampler failed or returned non-finite values; the step was skipped
	DiagnosticSamplerFailure DiagnosticKind = iota
	// DiagnosticUnboundedInterval: an interval stayed infinite after clipping to the ray bounds and was dropped
	DiagnosticUnboundedInterval
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticSamplerFailure:
		return "sampler-failure"
	case DiagnosticUnboundedInterval:
		return "unbounded-interval"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic describes one non-fatal problem
type Diagnostic struct {
	Kind       DiagnosticKind
	T          float64 // Ray parameter where it happened
	Components []interval.ComponentID
	Err        error
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s at t=%g %v: %v", d.Kind, d.T, d.Components, d.Err)
	}
	return fmt.Sprintf("%s at t=%g %v", d.Kind, d.T, d.Components)
}
