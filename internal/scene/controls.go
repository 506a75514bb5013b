package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitControls rotates a camera around a target. Input is fed by the host
// window; the controls only hold spherical state.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target mgl32.Vec3

	Enabled         bool
	AutoRotate      bool
	AutoRotateSpeed float32 // full turns per minute
	RotateSpeed     float32
	ZoomSpeed       float32
	MinDistance     float32
	MaxDistance     float32
	EnableDamping   bool
	DampingFactor   float32

	theta, phi, radius float32
	deltaTheta         float32
	deltaPhi           float32
}

func NewOrbitControls(camera *PerspectiveCamera) *OrbitControls {
	c := &OrbitControls{
		Camera:          camera,
		Target:          camera.Target,
		Enabled:         true,
		AutoRotateSpeed: 2,
		RotateSpeed:     0.005,
		ZoomSpeed:       1.1,
		MinDistance:     0.5,
		MaxDistance:     500,
		EnableDamping:   true,
		DampingFactor:   0.08,
	}
	c.Sync()
	return c
}

// Sync reads the spherical state back from the camera position.
func (c *OrbitControls) Sync() {
	offset := c.Camera.Position.Sub(c.Target)
	c.radius = offset.Len()
	if c.radius == 0 {
		c.theta, c.phi = 0, math.Pi/2
		return
	}
	c.theta = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	c.phi = float32(math.Acos(float64(mgl32.Clamp(offset.Y()/c.radius, -1, 1))))
}

// SetTarget moves the orbit center and re-derives spherical state.
func (c *OrbitControls) SetTarget(target mgl32.Vec3) {
	c.Target = target
	c.Camera.LookAt(target)
	c.Sync()
}

// Rotate feeds a pointer drag in pixels.
func (c *OrbitControls) Rotate(dx, dy float32) {
	if !c.Enabled {
		return
	}
	c.deltaTheta -= dx * c.RotateSpeed
	c.deltaPhi -= dy * c.RotateSpeed
}

// Zoom feeds a scroll step; positive zooms in.
func (c *OrbitControls) Zoom(steps float32) {
	if !c.Enabled || steps == 0 {
		return
	}
	scale := float32(math.Pow(float64(c.ZoomSpeed), float64(-steps)))
	c.radius = mgl32.Clamp(c.radius*scale, c.MinDistance, c.MaxDistance)
}

// Update advances auto-rotation and damping by dt seconds and writes the camera.
func (c *OrbitControls) Update(dt float32) {
	if c.AutoRotate {
		c.deltaTheta -= 2 * math.Pi / 60 * c.AutoRotateSpeed * dt
	}
	damp := float32(1)
	if c.EnableDamping {
		damp = c.DampingFactor
	}
	c.theta += c.deltaTheta * damp
	c.phi = mgl32.Clamp(c.phi+c.deltaPhi*damp, 0.01, math.Pi-0.01)
	if c.EnableDamping {
		c.deltaTheta *= 1 - c.DampingFactor
		c.deltaPhi *= 1 - c.DampingFactor
	} else {
		c.deltaTheta, c.deltaPhi = 0, 0
	}

	sinPhi := float32(math.Sin(float64(c.phi)))
	offset := mgl32.Vec3{
		c.radius * sinPhi * float32(math.Sin(float64(c.theta))),
		c.radius * float32(math.Cos(float64(c.phi))),
		c.radius * sinPhi * float32(math.Cos(float64(c.theta))),
	}
	c.Camera.Position = c.Target.Add(offset)
	c.Camera.LookAt(c.Target)
}

// Distance returns the current orbit radius.
func (c *OrbitControls) Distance() float32 {
	return c.radius
}
