package inspector

import (
	"GopherTestbed/internal/scene"
)

// Node is one scene graph node in the exported scene document.
type Node struct {
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	Visible   bool       `json:"visible"`
	Tags      []string   `json:"tags,omitempty"`
	Position  [3]float32 `json:"position"`
	Scale     [3]float32 `json:"scale"`
	Triangles int        `json:"triangles,omitempty"`
	Material  string     `json:"material,omitempty"`
	Distance  *float32   `json:"lodDistance,omitempty"`
	Children  []Node     `json:"children,omitempty"`
}

// SceneDocument is the exported scene: the graph plus its census.
type SceneDocument struct {
	Collection string     `json:"collection"`
	Background [3]float32 `json:"background"`
	Snapshot   Snapshot   `json:"snapshot"`
	Root       Node       `json:"root"`
}

// Export serializes sc into a document suitable for JSON encoding.
func Export(sc *scene.Scene, collection string) SceneDocument {
	if sc == nil {
		return SceneDocument{Collection: collection}
	}
	return SceneDocument{
		Collection: collection,
		Background: sc.Background,
		Snapshot:   Build(sc),
		Root:       exportNode(sc.Root(), nil),
	}
}

func exportNode(n scene.Node, distance *float32) Node {
	o := n.Object()
	out := Node{
		Name:     o.Name,
		Kind:     o.Kind.String(),
		Visible:  o.Visible,
		Tags:     o.Tags(),
		Position: o.Position,
		Scale:    o.Scale,
		Distance: distance,
	}
	if len(out.Tags) == 0 {
		out.Tags = nil
	}
	detail := &nodeDetail{out: &out, lodDistance: map[scene.Node]float32{}}
	n.Accept(detail)
	for _, c := range o.Children() {
		var d *float32
		if v, ok := detail.lodDistance[c]; ok {
			d = &v
		}
		out.Children = append(out.Children, exportNode(c, d))
	}
	return out
}

// nodeDetail fills the type specific fields of one exported node.
type nodeDetail struct {
	scene.BaseVisitor
	out         *Node
	lodDistance map[scene.Node]float32
}

func (d *nodeDetail) VisitMesh(m *scene.Mesh) {
	if m.Geometry != nil {
		d.out.Triangles = m.Geometry.TriangleCount()
	}
	if m.Material != nil {
		d.out.Material = m.Material.Name
	}
}

func (d *nodeDetail) VisitLOD(l *scene.LOD) {
	for _, lvl := range l.Levels {
		d.lodDistance[lvl.Object] = lvl.Distance
	}
}
