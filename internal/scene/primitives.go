package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ComputeVertexNormals accumulates face normals onto their vertices.
func (g *Geometry) ComputeVertexNormals() {
	normals := make([]mgl32.Vec3, len(g.Positions))
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := triangleIndices(g, i)
		if a >= len(normals) || b >= len(normals) || c >= len(normals) {
			continue
		}
		n := g.Positions[b].Sub(g.Positions[a]).Cross(g.Positions[c].Sub(g.Positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	g.Normals = normals
}

func triangleIndices(g *Geometry, i int) (int, int, int) {
	if len(g.Indices) > 0 {
		return int(g.Indices[3*i]), int(g.Indices[3*i+1]), int(g.Indices[3*i+2])
	}
	return 3 * i, 3*i + 1, 3*i + 2
}

// NewPlaneGeometry builds a subdivided plane in XZ facing +Y.
func NewPlaneGeometry(width, depth float32, segments int) *Geometry {
	segments = max(segments, 1)
	var positions []mgl32.Vec3
	var normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	for z := 0; z <= segments; z++ {
		for x := 0; x <= segments; x++ {
			u := float32(x) / float32(segments)
			v := float32(z) / float32(segments)
			positions = append(positions, mgl32.Vec3{(u - 0.5) * width, 0, (v - 0.5) * depth})
			normals = append(normals, mgl32.Vec3{0, 1, 0})
			uvs = append(uvs, mgl32.Vec2{u, 1 - v})
		}
	}
	row := uint32(segments + 1)
	var indices []uint32
	for z := uint32(0); z < uint32(segments); z++ {
		for x := uint32(0); x < uint32(segments); x++ {
			a := z*row + x
			b := a + 1
			c := a + row
			d := c + 1
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	g := NewGeometry(positions, indices)
	g.Normals = normals
	g.UVs = uvs
	return g
}

// NewCircleGeometry builds a flat disc in XZ facing +Y.
func NewCircleGeometry(radius float32, segments int) *Geometry {
	segments = max(segments, 3)
	positions := []mgl32.Vec3{{0, 0, 0}}
	normals := []mgl32.Vec3{{0, 1, 0}}
	uvs := []mgl32.Vec2{{0.5, 0.5}}
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		cos, sin := float32(math.Cos(a)), float32(math.Sin(a))
		positions = append(positions, mgl32.Vec3{radius * cos, 0, -radius * sin})
		normals = append(normals, mgl32.Vec3{0, 1, 0})
		uvs = append(uvs, mgl32.Vec2{(cos + 1) / 2, (sin + 1) / 2})
	}
	var indices []uint32
	for i := uint32(1); i <= uint32(segments); i++ {
		indices = append(indices, 0, i, i+1)
	}
	g := NewGeometry(positions, indices)
	g.Normals = normals
	g.UVs = uvs
	return g
}

// NewBoxGeometry builds an axis aligned box centered on the origin.
func NewBoxGeometry(width, height, depth float32) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}
	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(positions))
		positions = append(positions, f.corners[:]...)
		for i := 0; i < 4; i++ {
			normals = append(normals, f.normal)
		}
		uvs = append(uvs, mgl32.Vec2{0, 0}, mgl32.Vec2{1, 0}, mgl32.Vec2{1, 1}, mgl32.Vec2{0, 1})
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	g := NewGeometry(positions, indices)
	g.Normals = normals
	g.UVs = uvs
	return g
}

// NewSphereGeometry builds a UV sphere.
func NewSphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)
	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	for y := 0; y <= heightSegments; y++ {
		v := float64(y) / float64(heightSegments)
		for x := 0; x <= widthSegments; x++ {
			u := float64(x) / float64(widthSegments)
			n := mgl32.Vec3{
				float32(-math.Cos(u*2*math.Pi) * math.Sin(v*math.Pi)),
				float32(math.Cos(v * math.Pi)),
				float32(math.Sin(u*2*math.Pi) * math.Sin(v*math.Pi)),
			}
			positions = append(positions, n.Mul(radius))
			normals = append(normals, n)
			uvs = append(uvs, mgl32.Vec2{float32(u), float32(1 - v)})
		}
	}
	row := uint32(widthSegments + 1)
	var indices []uint32
	for y := uint32(0); y < uint32(heightSegments); y++ {
		for x := uint32(0); x < uint32(widthSegments); x++ {
			a := y*row + x + 1
			b := y*row + x
			c := (y+1)*row + x
			d := (y+1)*row + x + 1
			if y != 0 {
				indices = append(indices, a, b, d)
			}
			if y != uint32(heightSegments)-1 {
				indices = append(indices, b, c, d)
			}
		}
	}
	g := NewGeometry(positions, indices)
	g.Normals = normals
	g.UVs = uvs
	return g
}
