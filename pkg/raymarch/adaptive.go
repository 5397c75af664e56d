package raymarch

import (
	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/interval"
)

// Step scaling applied by the adaptive policy
const (
	adaptiveGrow   = 1.5
	adaptiveShrink = 0.5
)

// AdaptiveRaymarcher starts each interval like the uniform marcher and then
// resizes steps to keep the relative transmittance change of a step near
// Config.AdaptiveTolerance. Thin regions are crossed in long strides while
// dense regions get finer sampling. Steps stay within
// [Config.MinStepLength, Config.MaxStepLength].
//
// The march never backtracks: a step that overshoots the tolerance is kept
// and only the following step is shortened.
type AdaptiveRaymarcher struct {
	marcher
}

// NewAdaptiveRaymarcher creates a variable-step raymarcher
func NewAdaptiveRaymarcher(config Config, source IntervalSource, opts ...Option) *AdaptiveRaymarcher {
	policy := adaptivePolicy{
		defaultStep: config.StepLength,
		minStep:     config.MinStepLength,
		maxStep:     config.MaxStepLength,
		tolerance:   config.AdaptiveTolerance,
	}
	return &AdaptiveRaymarcher{
		marcher: newMarcher(config, source, policy, opts),
	}
}

type adaptivePolicy struct {
	defaultStep float64
	minStep     float64
	maxStep     float64
	tolerance   float64
}

func (p adaptivePolicy) clamp(step float64) float64 {
	return max(p.minStep, min(p.maxStep, step))
}

func (p adaptivePolicy) initialStep(iv interval.Interval) float64 {
	if iv.StepLength > 0 {
		return p.clamp(iv.StepLength)
	}
	return p.clamp(p.defaultStep)
}

func (p adaptivePolicy) nextStep(current float64, before, after core.Vec3) float64 {
	b := before.MaxComponent()
	if b <= 0 {
		return current
	}
	change := 1 - after.MaxComponent()/b

	switch {
	case change > p.tolerance:
		return p.clamp(current * adaptiveShrink)
	case change < p.tolerance*0.25:
		return p.clamp(current * adaptiveGrow)
	default:
		return current
	}
}
