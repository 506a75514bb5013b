package scene

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half line in world or object space.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray through m. The direction is not renormalized so
// hit distances stay comparable across spaces.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	o := m.Mul4x1(r.Origin.Vec4(1)).Vec3()
	d := m.Mul4x1(r.Direction.Vec4(0)).Vec3()
	return Ray{Origin: o, Direction: d}
}

// Hit describes a ray/mesh intersection.
type Hit struct {
	Mesh     *Mesh
	Distance float32
	Point    mgl32.Vec3
	Triangle int
}

// IntersectSphere returns the nearest positive hit distance on a sphere.
func IntersectSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	switch {
	case t1 > 0:
		return t1, true
	case t2 > 0:
		// origin inside the sphere
		return t2, true
	}
	return 0, false
}

// IntersectTriangle is the Möller-Trumbore test. It returns the ray parameter of the hit.
func IntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (float32, bool) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if t > epsilon {
		return t, true
	}
	return 0, false
}

// Raycaster intersects a local-space ray with a mesh.
type Raycaster func(m *Mesh, local Ray) (Hit, bool)

var meshRaycaster atomic.Pointer[Raycaster]

// SetMeshRaycaster replaces the process-wide mesh intersection routine.
// Passing nil restores the brute force routine.
func SetMeshRaycaster(r Raycaster) {
	if r == nil {
		meshRaycaster.Store(nil)
		return
	}
	meshRaycaster.Store(&r)
}

// MeshRaycasterInstalled reports whether an accelerated routine is active.
func MeshRaycasterInstalled() bool {
	return meshRaycaster.Load() != nil
}

// BruteForceRaycast tests every triangle of the mesh.
func BruteForceRaycast(m *Mesh, local Ray) (Hit, bool) {
	g := m.Geometry
	if g == nil {
		return Hit{}, false
	}
	if _, ok := IntersectSphere(local, g.BoundingSphereCenter, g.BoundingSphereRadius); !ok && g.BoundingSphereRadius > 0 {
		return Hit{}, false
	}
	best := Hit{Triangle: -1}
	found := false
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := g.Triangle(i)
		if t, ok := IntersectTriangle(local, a, b, c); ok && (!found || t < best.Distance) {
			best = Hit{Mesh: m, Distance: t, Triangle: i}
			found = true
		}
	}
	return best, found
}

// Raycast intersects a world-space ray with the mesh.
func (m *Mesh) Raycast(ray Ray) (Hit, bool) {
	world := m.WorldMatrix()
	local := ray.Transform(world.Inv())
	cast := BruteForceRaycast
	if p := meshRaycaster.Load(); p != nil {
		cast = *p
	}
	hit, ok := cast(m, local)
	if !ok {
		return Hit{}, false
	}
	hit.Mesh = m
	hit.Point = ray.At(hit.Distance)
	return hit, true
}

// Raycast returns all visible mesh hits under root, nearest first.
func Raycast(root Node, ray Ray) []Hit {
	var hits []Hit
	Walk(root, MeshVisitor(func(m *Mesh) {
		if !m.Visible {
			return
		}
		if h, ok := m.Raycast(ray); ok {
			hits = append(hits, h)
		}
	}))
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}
