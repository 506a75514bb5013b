package renderer

import (
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

type drawItem struct {
	mesh  *scene.Mesh
	world mgl32.Mat4
}

// frameLights is the fixed light rig both backends shade with.
type frameLights struct {
	ambient      mgl32.Vec3
	key          *scene.Light
	keyDirection mgl32.Vec3
	point        *scene.Light
	pointWorld   mgl32.Vec3
}

// frame is the backend independent view of a scene for one draw.
type frame struct {
	items     []drawItem
	grids     []*scene.Grid
	flares    []*scene.LensFlare
	lights    frameLights
	triangles int
}

// frameBuilder walks visible nodes only; LOD nodes are resolved against the
// camera before their children are visited.
type frameBuilder struct {
	camera *scene.PerspectiveCamera
	f      *frame
}

func buildFrame(sc *scene.Scene, camera *scene.PerspectiveCamera) *frame {
	b := &frameBuilder{camera: camera, f: &frame{}}
	b.f.lights.keyDirection = mgl32.Vec3{0, -1, 0}
	b.visit(sc.Root())
	return b.f
}

func (b *frameBuilder) visit(n scene.Node) {
	obj := n.Object()
	if !obj.Visible {
		return
	}
	n.Accept(b)
	for _, c := range obj.Children() {
		b.visit(c)
	}
}

func worldPosition(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

func (b *frameBuilder) VisitGroup(*scene.Group) {}

// VisitLOD selects the level before its children are visited.
func (b *frameBuilder) VisitLOD(lod *scene.LOD) {
	if b.camera != nil {
		lod.Update(b.camera.Distance(worldPosition(lod.WorldMatrix())))
	}
}

func (b *frameBuilder) VisitGrid(g *scene.Grid) {
	b.f.grids = append(b.f.grids, g)
}

func (b *frameBuilder) VisitMesh(m *scene.Mesh) {
	if m.Geometry == nil || len(m.Geometry.Positions) == 0 {
		return
	}
	b.f.items = append(b.f.items, drawItem{mesh: m, world: m.WorldMatrix()})
	b.f.triangles += m.Geometry.TriangleCount()
}

func (b *frameBuilder) VisitLight(l *scene.Light) {
	lights := &b.f.lights
	switch l.LightKind {
	case scene.LightAmbient:
		lights.ambient = lights.ambient.Add(l.Color.Mul(l.Intensity))
	case scene.LightDirectional:
		if lights.key == nil || l.HasTag(scene.TagPrimaryLight) {
			lights.key = l
			dir := l.Target.Sub(worldPosition(l.WorldMatrix()))
			if dir.Len() > 0 {
				lights.keyDirection = dir.Normalize()
			}
		}
	case scene.LightPoint:
		if lights.point == nil {
			lights.point = l
			lights.pointWorld = worldPosition(l.WorldMatrix())
		}
	}
}

func (b *frameBuilder) VisitLensFlare(f *scene.LensFlare) {
	b.f.flares = append(b.f.flares, f)
}

// gridLines returns the line segment endpoints of g in local space.
func gridLines(g *scene.Grid) []mgl32.Vec3 {
	divisions := max(g.Divisions, 1)
	half := g.Size / 2
	step := g.Size / float32(divisions)
	lines := make([]mgl32.Vec3, 0, (divisions+1)*4)
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		lines = append(lines,
			mgl32.Vec3{-half, 0, k}, mgl32.Vec3{half, 0, k},
			mgl32.Vec3{k, 0, -half}, mgl32.Vec3{k, 0, half})
	}
	return lines
}

// lightViewProjection frames the key light's shadow camera on the origin.
func lightViewProjection(lights frameLights) mgl32.Mat4 {
	if lights.key == nil {
		return mgl32.Ident4()
	}
	eye := lights.keyDirection.Mul(-20)
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if abs32(lights.keyDirection.Y()) > 0.999 {
		view = mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	}
	return mgl32.Ortho(-15, 15, -15, 15, 1, 40).Mul4(view)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// interleave packs position, uv and normal into the 8 float stride both
// backends bind.
func interleave(g *scene.Geometry) []float32 {
	data := make([]float32, 0, len(g.Positions)*8)
	for i, p := range g.Positions {
		var uv mgl32.Vec2
		if i < len(g.UVs) {
			uv = g.UVs[i]
		}
		n := mgl32.Vec3{0, 1, 0}
		if i < len(g.Normals) {
			n = g.Normals[i]
		}
		data = append(data, p[0], p[1], p[2], uv[0], uv[1], n[0], n[1], n[2])
	}
	return data
}

// triangleIndices returns g's index buffer, synthesizing one for
// non-indexed geometry.
func triangleIndices(g *scene.Geometry) []uint32 {
	if len(g.Indices) > 0 {
		return g.Indices
	}
	idx := make([]uint32, len(g.Positions))
	for i := range idx {
		idx[i] = uint32(i)
	}
	return idx
}
