package scene

import "github.com/go-gl/mathgl/mgl32"

// Scene is the root of a graph. It owns no GPU state itself; the
// environment texture is attached and released by the lighting reconciler.
type Scene struct {
	Group
	Background  mgl32.Vec3
	Environment *Texture
	// EnvironmentIntensity scales image based lighting on PBR materials.
	EnvironmentIntensity float32
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		Group:                Group{Object3D: newObject("Scene", KindGroup)},
		Background:           Hex(0x0b1117),
		EnvironmentIntensity: 1,
	}
}

// Root returns the scene as a traversal root.
func (s *Scene) Root() Node { return &s.Group }

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...Node) {
	for _, n := range nodes {
		Add(&s.Group, n)
	}
}

// Remove detaches a node from the scene root.
func (s *Scene) Remove(n Node) bool {
	return Remove(&s.Group, n)
}

// Clear detaches every top-level node and returns them.
func (s *Scene) Clear() []Node {
	removed := append([]Node(nil), s.children...)
	for _, n := range removed {
		Remove(&s.Group, n)
	}
	return removed
}

// PrimaryLight returns the light tagged primary, or the first directional light.
func (s *Scene) PrimaryLight() *Light {
	var tagged, first *Light
	Walk(s.Root(), LightVisitor(func(l *Light) {
		if l.LightKind != LightDirectional {
			return
		}
		if first == nil {
			first = l
		}
		if tagged == nil && l.HasTag(TagPrimaryLight) {
			tagged = l
		}
	}))
	if tagged != nil {
		return tagged
	}
	return first
}
