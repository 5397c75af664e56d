package core

// Logger interface for raymarcher logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards everything. It is the default for library code so the
// integration loop stays silent unless a caller opts in.
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}

// DepthProjector maps a world-space position to the scalar depth used for deep output,
// for example camera-space Z.
type DepthProjector interface {
	Depth(p Vec3) float64
}
