package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialKind distinguishes lit physically based materials from unlit ones.
type MaterialKind int

const (
	MaterialStandard MaterialKind = iota
	MaterialPhysical
	MaterialBasic
)

// Material describes surface shading. Only standard and physical materials
// take part in environment lighting.
type Material struct {
	Name            string
	Kind            MaterialKind
	Color           mgl32.Vec3
	Metalness       float32
	Roughness       float32
	EnvMapIntensity float32
	Emissive        mgl32.Vec3

	Map          *Texture
	NormalMap    *Texture
	RoughnessMap *Texture
	MetalnessMap *Texture
	EmissiveMap  *Texture

	disposed bool
}

// NewStandardMaterial returns a PBR material with engine defaults.
func NewStandardMaterial(name string, color mgl32.Vec3) *Material {
	return &Material{
		Name:            name,
		Kind:            MaterialStandard,
		Color:           color,
		Metalness:       0,
		Roughness:       1,
		EnvMapIntensity: 1,
	}
}

// NewPhysicalMaterial returns an extended PBR material.
func NewPhysicalMaterial(name string, color mgl32.Vec3) *Material {
	m := NewStandardMaterial(name, color)
	m.Kind = MaterialPhysical
	return m
}

// NewBasicMaterial returns an unlit material.
func NewBasicMaterial(name string, color mgl32.Vec3) *Material {
	return &Material{Name: name, Kind: MaterialBasic, Color: color}
}

// IsPBR reports whether the material reacts to environment lighting.
func (m *Material) IsPBR() bool {
	return m != nil && (m.Kind == MaterialStandard || m.Kind == MaterialPhysical)
}

// Maps returns the non-nil texture maps of the material.
func (m *Material) Maps() []*Texture {
	if m == nil {
		return nil
	}
	var maps []*Texture
	for _, t := range []*Texture{m.Map, m.NormalMap, m.RoughnessMap, m.MetalnessMap, m.EmissiveMap} {
		if t != nil {
			maps = append(maps, t)
		}
	}
	return maps
}

// Dispose disposes the material's texture maps once.
func (m *Material) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.disposed = true
	seen := make(map[*Texture]struct{})
	for _, t := range m.Maps() {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		t.Dispose()
	}
}

// BoundsTree is a spatial index attached to a geometry.
type BoundsTree interface {
	Raycast(ray Ray, g *Geometry) (Hit, bool)
	Dispose()
}

// Geometry is an indexed triangle list.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32

	BoundsTree BoundsTree

	BoundingSphereCenter mgl32.Vec3
	BoundingSphereRadius float32

	release func()
}

// NewGeometry builds a geometry and computes its bounding sphere.
func NewGeometry(positions []mgl32.Vec3, indices []uint32) *Geometry {
	g := &Geometry{Positions: positions, Indices: indices}
	g.ComputeBoundingSphere()
	return g
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the corners of triangle i.
func (g *Geometry) Triangle(i int) (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	if len(g.Indices) > 0 {
		return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
	}
	return g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]
}

// ComputeBoundingSphere recomputes the center and radius from the positions.
func (g *Geometry) ComputeBoundingSphere() {
	if len(g.Positions) == 0 {
		g.BoundingSphereCenter = mgl32.Vec3{}
		g.BoundingSphereRadius = 0
		return
	}
	minV := g.Positions[0]
	maxV := g.Positions[0]
	for _, p := range g.Positions[1:] {
		for i := 0; i < 3; i++ {
			minV[i] = float32(math.Min(float64(minV[i]), float64(p[i])))
			maxV[i] = float32(math.Max(float64(maxV[i]), float64(p[i])))
		}
	}
	center := minV.Add(maxV).Mul(0.5)
	var radius float32
	for _, p := range g.Positions {
		if d := p.Sub(center).Len(); d > radius {
			radius = d
		}
	}
	g.BoundingSphereCenter = center
	g.BoundingSphereRadius = radius
}

// SetRelease installs the hook that frees backend buffers on Dispose.
func (g *Geometry) SetRelease(release func()) {
	g.release = release
}

// Dispose frees the bounds tree and backend buffers.
func (g *Geometry) Dispose() {
	if g.BoundsTree != nil {
		g.BoundsTree.Dispose()
		g.BoundsTree = nil
	}
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

// RenderTarget is an offscreen color buffer owned by a mesh, such as a
// planar reflection target.
type RenderTarget struct {
	Width, Height int
	release       func()
	disposeCount  int
}

// NewRenderTarget allocates a render target descriptor.
func NewRenderTarget(width, height int) *RenderTarget {
	return &RenderTarget{Width: width, Height: height}
}

// SetRelease installs the backend release hook.
func (rt *RenderTarget) SetRelease(release func()) {
	rt.release = release
}

// SetSize resizes the target.
func (rt *RenderTarget) SetSize(width, height int) {
	rt.Width, rt.Height = width, height
}

// Dispose frees backend memory.
func (rt *RenderTarget) Dispose() {
	rt.disposeCount++
	if rt.release != nil {
		rt.release()
		rt.release = nil
	}
}

// DisposeCount reports how many times Dispose has been called.
func (rt *RenderTarget) DisposeCount() int {
	return rt.disposeCount
}

// Mesh renders a geometry with a material.
type Mesh struct {
	Object3D
	Geometry      *Geometry
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool

	// Reflector is set on reflective floor proxies.
	Reflector *RenderTarget
}

// NewMesh creates a named mesh.
func NewMesh(name string, geometry *Geometry, material *Material) *Mesh {
	return &Mesh{
		Object3D: newObject(name, KindMesh),
		Geometry: geometry,
		Material: material,
	}
}

func (m *Mesh) Object() *Object3D { return &m.Object3D }

func (m *Mesh) Accept(v Visitor) { v.VisitMesh(m) }

// Dispose frees the mesh's geometry, material and reflector target.
func (m *Mesh) Dispose() {
	if m.Geometry != nil {
		m.Geometry.Dispose()
	}
	m.Material.Dispose()
	if m.Reflector != nil {
		m.Reflector.Dispose()
		m.Reflector = nil
	}
}
