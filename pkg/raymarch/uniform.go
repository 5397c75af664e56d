package raymarch

import (
	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/interval"
)

// UniformRaymarcher marches every interval at a fixed step length: the
// interval's own hint when it has one, Config.StepLength otherwise.
type UniformRaymarcher struct {
	marcher
}

// NewUniformRaymarcher creates a fixed-step raymarcher
func NewUniformRaymarcher(config Config, source IntervalSource, opts ...Option) *UniformRaymarcher {
	return &UniformRaymarcher{
		marcher: newMarcher(config, source, uniformPolicy{defaultStep: config.StepLength}, opts),
	}
}

type uniformPolicy struct {
	defaultStep float64
}

func (p uniformPolicy) initialStep(iv interval.Interval) float64 {
	if iv.StepLength > 0 {
		return iv.StepLength
	}
	return p.defaultStep
}

func (p uniformPolicy) nextStep(current float64, _, _ core.Vec3) float64 {
	return current
}
