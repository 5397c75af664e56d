package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels      int           `yaml:"total_pixels"`      // Total number of pixels rendered
	TotalSteps       int           `yaml:"total_steps"`       // Marching steps across all rays
	AverageSteps     float64       `yaml:"average_steps"`     // Average steps per pixel
	MaxSteps         int           `yaml:"max_steps"`         // Most steps taken by any pixel
	SamplerFailures  int           `yaml:"sampler_failures"`  // Skipped steps across all rays
	EarlyTerminated  int           `yaml:"early_terminated"`  // Rays that became opaque before their far bound
	FailedRays       int           `yaml:"failed_rays"`       // Rays whose integration returned an error
	AverageLuminance float64       `yaml:"average_luminance"` // Mean luminance of the finished image
	Duration         time.Duration `yaml:"duration"`
}

// add folds the statistics of one row into s
func (s *RenderStats) add(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSteps += other.TotalSteps
	s.MaxSteps = max(s.MaxSteps, other.MaxSteps)
	s.SamplerFailures += other.SamplerFailures
	s.EarlyTerminated += other.EarlyTerminated
	s.FailedRays += other.FailedRays
}

// finish derives the averages once every row is in
func (s *RenderStats) finish() {
	if s.TotalPixels > 0 {
		s.AverageSteps = float64(s.TotalSteps) / float64(s.TotalPixels)
	}
}
