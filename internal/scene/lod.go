package scene

// LODLevel pairs a detail variant with the camera distance it switches in at.
type LODLevel struct {
	Distance float32
	Object   Node
}

// LOD selects one of its levels by camera distance.
type LOD struct {
	Object3D
	Levels []LODLevel
}

func NewLOD(name string) *LOD {
	return &LOD{Object3D: newObject(name, KindLOD)}
}

func (l *LOD) Object() *Object3D { return &l.Object3D }

func (l *LOD) Accept(v Visitor) { v.VisitLOD(l) }

// AddLevel appends a level and parents its object to the LOD node.
func (l *LOD) AddLevel(object Node, distance float32) {
	l.Levels = append(l.Levels, LODLevel{Distance: distance, Object: object})
	Add(l, object)
}

// Select returns the index of the level active at distance.
func (l *LOD) Select(distance float32) int {
	idx := 0
	for i, lvl := range l.Levels {
		if distance >= lvl.Distance {
			idx = i
		}
	}
	return idx
}

// Update shows only the level active at distance.
func (l *LOD) Update(distance float32) {
	if len(l.Levels) == 0 {
		return
	}
	active := l.Select(distance)
	for i, lvl := range l.Levels {
		lvl.Object.Object().Visible = i == active
	}
}
