package renderer

import (
	"math"

	"github.com/df07/go-raymarcher/pkg/core"
)

// CameraConfig places a pinhole camera in the scene
type CameraConfig struct {
	Center core.Vec3 // Eye position
	LookAt core.Vec3 // Point the camera looks at
	Up     core.Vec3 // Approximate up direction
	Width  int       // Image width in pixels
	Height int       // Image height in pixels
	VFov   float64   // Vertical field of view in degrees
}

// Camera generates primary rays and projects points to camera-space depth
type Camera struct {
	config          CameraConfig
	origin          core.Vec3
	forward         core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// Ensure Camera can drive deep output
var _ core.DepthProjector = (*Camera)(nil)

// NewCamera creates a look-at pinhole camera. The image plane sits one unit
// in front of the eye so a ray's parameter equals its camera-space depth.
func NewCamera(config CameraConfig) *Camera {
	aspectRatio := 1.0
	if config.Width > 0 && config.Height > 0 {
		aspectRatio = float64(config.Width) / float64(config.Height)
	}
	viewportHeight := 2 * math.Tan(config.VFov*math.Pi/360)
	viewportWidth := aspectRatio * viewportHeight

	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := forward.Cross(config.Up).Normalize()
	// Looking along the up vector leaves the roll undefined
	if right.LengthSquared() < 1e-12 {
		right = core.NewVec3(1, 0, 0)
	}
	up := right.Cross(forward)

	horizontal := right.Multiply(viewportWidth)
	vertical := up.Multiply(viewportHeight)
	lowerLeftCorner := config.Center.
		Add(forward).
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5))

	return &Camera{
		config:          config,
		origin:          config.Center,
		forward:         forward,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
	}
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1
// and (0, 0) is the lower left corner
func (c *Camera) GetRay(s, t float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin)

	return core.NewRay(c.origin, direction)
}

// PixelRay returns the ray through the center of pixel (x, y), with y = 0 the top row
func (c *Camera) PixelRay(x, y int) core.Ray {
	s := (float64(x) + 0.5) / float64(c.config.Width)
	t := 1 - (float64(y)+0.5)/float64(c.config.Height)
	return c.GetRay(s, t)
}

// Depth returns the camera-space Z of p, its distance along the view axis
func (c *Camera) Depth(p core.Vec3) float64 {
	return p.Subtract(c.origin).Dot(c.forward)
}

// GetCameraForward returns the normalized view direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.forward
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}
