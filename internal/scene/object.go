package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags the concrete node type so traversal can dispatch without type assertions.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindLight
	KindLOD
	KindGrid
	KindLensFlare
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	case KindLOD:
		return "lod"
	case KindGrid:
		return "grid"
	case KindLensFlare:
		return "lensflare"
	default:
		return "unknown"
	}
}

// Well-known tags used by the reconcilers.
const (
	TagFloor               = "floor"
	TagReflectiveFloor     = "reflective-floor"
	TagReflectiveProxy     = "reflective-floor-proxy"
	TagReflectionExcluded  = "reflection-excluded"
	TagPrimaryLight        = "primary-light"
	TagLightSourceGeometry = "light-source"
)

// Node is anything that can live in the scene graph.
type Node interface {
	Object() *Object3D
	Accept(v Visitor)
}

// Object3D carries the state shared by every node: transform, visibility,
// tags and hierarchy.
type Object3D struct {
	Name     string
	Kind     Kind
	Visible  bool
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	tags     map[string]struct{}
	parent   Node
	children []Node
}

func newObject(name string, kind Kind) Object3D {
	return Object3D{
		Name:     name,
		Kind:     kind,
		Visible:  true,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Tag attaches metadata tags to the object.
func (o *Object3D) Tag(tags ...string) {
	if o.tags == nil {
		o.tags = make(map[string]struct{}, len(tags))
	}
	for _, t := range tags {
		o.tags[t] = struct{}{}
	}
}

// Untag removes a tag.
func (o *Object3D) Untag(tag string) {
	delete(o.tags, tag)
}

// HasTag reports whether the object carries tag.
func (o *Object3D) HasTag(tag string) bool {
	_, ok := o.tags[tag]
	return ok
}

// Tags returns the object's tags in sorted order.
func (o *Object3D) Tags() []string {
	out := make([]string, 0, len(o.tags))
	for t := range o.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Children returns the direct children. The slice must not be modified.
func (o *Object3D) Children() []Node {
	return o.children
}

// Parent returns the parent node or nil.
func (o *Object3D) Parent() Node {
	return o.parent
}

// SetPosition sets the local translation.
func (o *Object3D) SetPosition(x, y, z float32) {
	o.Position = mgl32.Vec3{x, y, z}
}

// SetScale sets the local scale.
func (o *Object3D) SetScale(x, y, z float32) {
	o.Scale = mgl32.Vec3{x, y, z}
}

// Rotate sets the rotation from Euler angles in radians.
func (o *Object3D) Rotate(angleX, angleY, angleZ float32) {
	qx := mgl32.QuatRotate(angleX, mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(angleY, mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(angleZ, mgl32.Vec3{0, 0, 1})
	o.Rotation = qz.Mul(qy).Mul(qx)
}

// LocalMatrix returns the TRS matrix of the object.
func (o *Object3D) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(o.Position.X(), o.Position.Y(), o.Position.Z())
	s := mgl32.Scale3D(o.Scale.X(), o.Scale.Y(), o.Scale.Z())
	return t.Mul4(o.Rotation.Mat4()).Mul4(s)
}

// WorldMatrix composes the local matrices up to the root.
func (o *Object3D) WorldMatrix() mgl32.Mat4 {
	m := o.LocalMatrix()
	for p := o.parent; p != nil; p = p.Object().parent {
		m = p.Object().LocalMatrix().Mul4(m)
	}
	return m
}

// Add attaches child to parent, detaching it from any previous parent.
func Add(parent, child Node) {
	if parent == nil || child == nil {
		return
	}
	if old := child.Object().parent; old != nil {
		Remove(old, child)
	}
	po := parent.Object()
	po.children = append(po.children, child)
	child.Object().parent = parent
}

// Remove detaches child from parent. It returns false if child was not attached to parent.
func Remove(parent, child Node) bool {
	if parent == nil || child == nil {
		return false
	}
	po := parent.Object()
	for i, c := range po.children {
		if c == child {
			po.children = append(po.children[:i], po.children[i+1:]...)
			child.Object().parent = nil
			return true
		}
	}
	return false
}

// Group is a plain container node.
type Group struct {
	Object3D
}

// NewGroup creates an empty named group.
func NewGroup(name string) *Group {
	return &Group{Object3D: newObject(name, KindGroup)}
}

func (g *Group) Object() *Object3D { return &g.Object3D }

func (g *Group) Accept(v Visitor) { v.VisitGroup(g) }

// Grid is a reference line grid drawn on the ground plane.
type Grid struct {
	Object3D
	Size      float32
	Divisions int
	Color     mgl32.Vec3
}

// NewGrid creates a square grid centered on the origin.
func NewGrid(size float32, divisions int) *Grid {
	return &Grid{
		Object3D:  newObject("Grid", KindGrid),
		Size:      size,
		Divisions: divisions,
		Color:     mgl32.Vec3{0.106, 0.231, 0.231},
	}
}

func (g *Grid) Object() *Object3D { return &g.Object3D }

func (g *Grid) Accept(v Visitor) { v.VisitGrid(g) }
