package raymarch

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Marcher variants selectable through Config.Marcher
const (
	MarcherUniform  = "uniform"
	MarcherAdaptive = "adaptive"
)

// Config controls how rays are marched
type Config struct {
	Marcher                   string  `yaml:"marcher" validate:"oneof=uniform adaptive"`
	StepLength                float64 `yaml:"step_length" validate:"gt=0"`                   // Default step when an interval has no hint
	Jitter                    bool    `yaml:"jitter"`                                        // Randomize sample positions within steps
	EarlyTerminationThreshold float64 `yaml:"early_termination_threshold" validate:"gte=0,lt=1"` // Stop once every channel of T is below this
	MaxStepsPerInterval       int     `yaml:"max_steps_per_interval" validate:"gt=0"`        // Longer steps are taken rather than exceeding this
	MaxDeepKnots              int     `yaml:"max_deep_knots" validate:"gte=0"`               // Knot budget per deep curve, 0 = unbounded

	// Adaptive marcher only
	MinStepLength     float64 `yaml:"min_step_length" validate:"gt=0"`
	MaxStepLength     float64 `yaml:"max_step_length" validate:"gtefield=MinStepLength"`
	AdaptiveTolerance float64 `yaml:"adaptive_tolerance" validate:"gt=0,lt=1"` // Target relative transmittance change per step
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Marcher:                   MarcherUniform,
		StepLength:                0.05,
		Jitter:                    true,
		EarlyTerminationThreshold: 1e-4,
		MaxStepsPerInterval:       4096,
		MaxDeepKnots:              0,
		MinStepLength:             0.005,
		MaxStepLength:             0.5,
		AdaptiveTolerance:         0.05,
	}
}

var configValidate = validator.New()

// Validate checks the configuration for out-of-range values
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid raymarch config: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML config file on top of DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
