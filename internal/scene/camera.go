package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/linmath"
)

// PerspectiveCamera looks from Position at Target.
type PerspectiveCamera struct {
	Position    mgl32.Vec3
	Target      mgl32.Vec3
	Up          mgl32.Vec3
	Fov         float32 // vertical, degrees
	Near        float32
	Far         float32
	AspectRatio float32
	Projection  mgl32.Mat4
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Up:          mgl32.Vec3{0, 1, 0},
		Fov:         fov,
		Near:        near,
		Far:         far,
		AspectRatio: aspect,
	}
	c.UpdateProjection()
	return c
}

func (c *PerspectiveCamera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

func (c *PerspectiveCamera) SetAspectRatio(aspectRatio float32) {
	c.AspectRatio = aspectRatio
	c.UpdateProjection()
}

func (c *PerspectiveCamera) SetPosition(x, y, z float32) {
	c.Position = mgl32.Vec3{x, y, z}
}

func (c *PerspectiveCamera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

func (c *PerspectiveCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns the OpenGL view-projection matrix (clip depth -1..1).
func (c *PerspectiveCamera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.ViewMatrix())
}

// depthRemap maps OpenGL clip depth -1..1 to the 0..1 range WebGPU expects.
var depthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ViewProjectionZeroToOne returns the view-projection in 0..1 clip depth,
// laid out for direct upload into a WebGPU uniform buffer.
func (c *PerspectiveCamera) ViewProjectionZeroToOne() linmath.Mat4x4 {
	return toLinmath(depthRemap.Mul4(c.ViewProjection()))
}

func toLinmath(m mgl32.Mat4) linmath.Mat4x4 {
	var out linmath.Mat4x4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m[i*4+j]
		}
	}
	return out
}

// Distance returns the distance from the camera to p.
func (c *PerspectiveCamera) Distance(p mgl32.Vec3) float32 {
	return c.Position.Sub(p).Len()
}

// ScreenRay builds a world ray through pixel (x, y) of a width x height viewport.
func (c *PerspectiveCamera) ScreenRay(x, y float32, width, height int) Ray {
	ndcX := 2*x/float32(width) - 1
	ndcY := 1 - 2*y/float32(height)
	inv := c.ViewProjection().Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)
	return Ray{Origin: c.Position, Direction: far.Sub(near).Normalize()}
}

// Orbit returns the camera position on a circle around target.
func Orbit(target mgl32.Vec3, radius, angle, height float32) mgl32.Vec3 {
	return mgl32.Vec3{
		target.X() + radius*float32(math.Cos(float64(angle))),
		height,
		target.Z() + radius*float32(math.Sin(float64(angle))),
	}
}
