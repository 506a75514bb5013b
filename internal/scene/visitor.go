package scene

// Visitor dispatches on concrete node types during traversal.
type Visitor interface {
	VisitGroup(g *Group)
	VisitGrid(g *Grid)
	VisitMesh(m *Mesh)
	VisitLight(l *Light)
	VisitLOD(l *LOD)
	VisitLensFlare(f *LensFlare)
}

// BaseVisitor ignores every node. Embed it to implement only the cases you need.
type BaseVisitor struct{}

func (BaseVisitor) VisitGroup(*Group)         {}
func (BaseVisitor) VisitGrid(*Grid)           {}
func (BaseVisitor) VisitMesh(*Mesh)           {}
func (BaseVisitor) VisitLight(*Light)         {}
func (BaseVisitor) VisitLOD(*LOD)             {}
func (BaseVisitor) VisitLensFlare(*LensFlare) {}

// Traverse calls fn for root and every descendant, depth first, parents before children.
func Traverse(root Node, fn func(Node)) {
	if root == nil {
		return
	}
	fn(root)
	// Copy so fn may detach nodes while we walk.
	children := append([]Node(nil), root.Object().children...)
	for _, c := range children {
		Traverse(c, fn)
	}
}

// Walk dispatches v over root and every descendant.
func Walk(root Node, v Visitor) {
	Traverse(root, func(n Node) { n.Accept(v) })
}

// MeshVisitor adapts a function to a Visitor that only sees meshes.
type MeshVisitor func(m *Mesh)

func (f MeshVisitor) VisitGroup(*Group)         {}
func (f MeshVisitor) VisitGrid(*Grid)           {}
func (f MeshVisitor) VisitMesh(m *Mesh)         { f(m) }
func (f MeshVisitor) VisitLight(*Light)         {}
func (f MeshVisitor) VisitLOD(*LOD)             {}
func (f MeshVisitor) VisitLensFlare(*LensFlare) {}

// Meshes returns every mesh under root.
func Meshes(root Node) []*Mesh {
	var out []*Mesh
	Walk(root, MeshVisitor(func(m *Mesh) { out = append(out, m) }))
	return out
}

// FindTagged returns every node under root carrying tag.
func FindTagged(root Node, tag string) []Node {
	var out []Node
	Traverse(root, func(n Node) {
		if n.Object().HasTag(tag) {
			out = append(out, n)
		}
	})
	return out
}

// FindByName returns the first node under root with the given name.
func FindByName(root Node, name string) Node {
	var found Node
	Traverse(root, func(n Node) {
		if found == nil && n.Object().Name == name {
			found = n
		}
	})
	return found
}

// LightVisitor adapts a function to a Visitor that only sees lights.
type LightVisitor func(l *Light)

func (f LightVisitor) VisitGroup(*Group)         {}
func (f LightVisitor) VisitGrid(*Grid)           {}
func (f LightVisitor) VisitMesh(*Mesh)           {}
func (f LightVisitor) VisitLight(l *Light)       { f(l) }
func (f LightVisitor) VisitLOD(*LOD)             {}
func (f LightVisitor) VisitLensFlare(*LensFlare) {}

// LODVisitor adapts a function to a Visitor that only sees LOD nodes.
type LODVisitor func(l *LOD)

func (f LODVisitor) VisitGroup(*Group)         {}
func (f LODVisitor) VisitGrid(*Grid)           {}
func (f LODVisitor) VisitMesh(*Mesh)           {}
func (f LODVisitor) VisitLight(*Light)         {}
func (f LODVisitor) VisitLOD(l *LOD)           { f(l) }
func (f LODVisitor) VisitLensFlare(*LensFlare) {}
