// Package inspector projects a scene into the read-only counts shown by the
// inspector panel.
package inspector

import "GopherTestbed/internal/scene"

// Snapshot is the derived scene census. It has no lifecycle of its own and
// is rebuilt after every scene mutation.
type Snapshot struct {
	MeshCount     int `json:"meshCount"`
	MaterialCount int `json:"materialCount"`
	TextureCount  int `json:"textureCount"`
	LODCount      int `json:"lodCount"`
	BVHCount      int `json:"bvhCount"`
}

type census struct {
	scene.BaseVisitor
	snap      Snapshot
	materials map[*scene.Material]struct{}
	textures  map[*scene.Texture]struct{}
}

func (c *census) VisitLOD(*scene.LOD) { c.snap.LODCount++ }

func (c *census) VisitMesh(m *scene.Mesh) {
	c.snap.MeshCount++
	if m.Material != nil {
		c.materials[m.Material] = struct{}{}
	}
	if m.Geometry != nil && m.Geometry.BoundsTree != nil {
		c.snap.BVHCount++
	}
	if m.Material.IsPBR() {
		for _, t := range m.Material.Maps() {
			c.textures[t] = struct{}{}
		}
	}
}

// Build counts meshes, distinct materials, distinct PBR texture maps, LOD
// nodes and meshes carrying a bounds tree. Hidden nodes are counted too.
func Build(sc *scene.Scene) Snapshot {
	if sc == nil {
		return Snapshot{}
	}
	c := &census{
		materials: make(map[*scene.Material]struct{}),
		textures:  make(map[*scene.Texture]struct{}),
	}
	scene.Walk(sc.Root(), c)
	c.snap.MaterialCount = len(c.materials)
	c.snap.TextureCount = len(c.textures)
	return c.snap
}
