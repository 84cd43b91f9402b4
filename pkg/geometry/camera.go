package geometry

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// CameraConfig holds the camera parameters populated by a scene loader
type CameraConfig struct {
	Position      core.Vec3 // Eye position
	Direction     core.Vec3 // Viewing direction
	Up            core.Vec3 // Up hint, need not be perpendicular to Direction
	FOV           float64   // Vertical field of view in degrees
	FocalDistance float64   // Distance to the plane in perfect focus
	DOF           float64   // Lens radius, zero for a pinhole camera
	Width         int       // Output image width in pixels
	Height        int       // Output image height in pixels
}

// DefaultCameraConfig returns the camera used when a scene does not specify one
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position:      core.NewVec3(0, 0, 0),
		Direction:     core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		FOV:           40,
		FocalDistance: 1,
		DOF:           0,
		Width:         200,
		Height:        150,
	}
}

// Camera generates world-space rays through the image plane
type Camera struct {
	config  CameraConfig
	right   core.Vec3 // Unit vector to the right of the view
	up      core.Vec3 // Unit vector up, perpendicular to the view
	topLeft core.Vec3 // Top-left corner of the image on the focal plane
	pixelU  core.Vec3 // Step across one pixel to the right
	pixelV  core.Vec3 // Step across one pixel downwards
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	forward := config.Direction.Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	focal := config.FocalDistance
	if focal <= 0 {
		focal = 1
	}

	// Image plane is placed at the focal distance so lens rays converge on it
	planeHeight := 2 * focal * math.Tan(config.FOV*math.Pi/360)
	planeWidth := planeHeight * float64(config.Width) / float64(config.Height)

	center := config.Position.Add(forward.Multiply(focal))
	topLeft := center.Subtract(right.Multiply(planeWidth / 2)).Add(up.Multiply(planeHeight / 2))

	return &Camera{
		config:  config,
		right:   right,
		up:      up,
		topLeft: topLeft,
		pixelU:  right.Multiply(planeWidth / float64(config.Width)),
		pixelV:  up.Multiply(-planeHeight / float64(config.Height)),
	}
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// GetRay returns a unit-direction ray through image position (x, y), measured
// in pixels from the top-left corner. lens is a point in the unit disk scaled
// by the lens radius; it is ignored for pinhole cameras.
func (c *Camera) GetRay(x, y float64, lens core.Vec2) core.Ray {
	target := c.topLeft.Add(c.pixelU.Multiply(x)).Add(c.pixelV.Multiply(y))

	origin := c.config.Position
	if c.config.DOF > 0 {
		offset := c.right.Multiply(lens.X * c.config.DOF).Add(c.up.Multiply(lens.Y * c.config.DOF))
		origin = origin.Add(offset)
	}

	return core.NewRay(origin, target.Subtract(origin).Normalize())
}
