package viewer

import (
	"math"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Camera is an orbit camera looking at a target point
type Camera struct {
	Position  geometry.Vector3
	Target    geometry.Vector3
	Up        geometry.Vector3
	FOV       float64 // Field of view in radians
	Distance  float64
	RotationX float64 // Elevation in radians
	RotationY float64 // Azimuth in radians
}

// NewCamera creates a camera that frames a bounding box from the given
// elevation and azimuth (radians). The model's Z axis is up.
func NewCamera(bbox geometry.BoundingBox, elevation, azimuth float64) *Camera {
	center := bbox.Center()
	fov := math.Pi / 4 // 45 degrees
	radius := bbox.Diagonal() / 2
	if radius == 0 {
		radius = 1
	}
	// distance at which the bounding sphere fits the field of view
	distance := radius / math.Sin(fov/2) * 1.05

	c := &Camera{
		Target:   center,
		Up:       geometry.NewVector3(0, 0, 1),
		FOV:      fov,
		Distance: distance,
	}
	c.Rotate(elevation, azimuth)
	return c
}

// UpdatePosition updates camera position based on rotation angles
func (c *Camera) UpdatePosition() {
	// spherical coordinates around the Z-up target
	x := c.Distance * math.Cos(c.RotationX) * math.Sin(c.RotationY)
	y := -c.Distance * math.Cos(c.RotationX) * math.Cos(c.RotationY)
	z := c.Distance * math.Sin(c.RotationX)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Rotate rotates the camera by the given angles
func (c *Camera) Rotate(deltaX, deltaY float64) {
	c.RotationX += deltaX
	c.RotationY += deltaY

	// Clamp elevation to keep the up vector usable
	maxAngle := math.Pi/2 - 0.01
	if c.RotationX > maxAngle {
		c.RotationX = maxAngle
	}
	if c.RotationX < -maxAngle {
		c.RotationX = -maxAngle
	}

	c.UpdatePosition()
}

// Zoom changes the camera distance
func (c *Camera) Zoom(delta float64) {
	c.Distance *= (1.0 + delta)
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.UpdatePosition()
}

// Forward returns the unit view direction
func (c *Camera) Forward() geometry.Vector3 {
	return c.Target.Sub(c.Position).Normalize()
}

// Project projects a 3D point to screen coordinates and view depth
func (c *Camera) Project(point geometry.Vector3, width, height float64) (float64, float64, float64) {
	forward := c.Forward()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward).Normalize()

	relative := point.Sub(c.Position)
	x := relative.Dot(right)
	y := relative.Dot(up)
	z := relative.Dot(forward)

	if z <= 0.01 {
		z = 0.01 // Prevent division by zero
	}

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	screenX := (x/(z*fovScale*aspect))*(width/2) + (width / 2)
	screenY := (-y/(z*fovScale))*(height/2) + (height / 2)

	return screenX, screenY, z
}
