// Package bvh builds bounding volume hierarchies over mesh triangles and
// installs them as the process-wide mesh raycast routine.
package bvh

import (
	"math"
	"sort"
	"sync"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const maxLeafSize = 4

// Node is one entry of the flattened tree. Each node takes 32 bytes.
//
// For inner nodes Min.W() > 0 holds the index of the left child and
// Max.W() the index of the right child. For leaves Min.W() <= 0 holds the
// negated offset of the first primitive and Max.W() the negated count.
type Node struct {
	Min mgl32.Vec4
	Max mgl32.Vec4
}

// IsLeaf reports whether the node stores primitives.
func (n Node) IsLeaf() bool {
	return n.Min.W() <= 0
}

type primitive struct {
	min, max, center mgl32.Vec3
	triangle         int32
}

// Tree is a BVH over the triangles of one geometry.
type Tree struct {
	Nodes     []Node
	Triangles []int32

	disposed bool
}

// Build constructs a tree for g. Geometries without triangles get an empty tree.
func Build(g *scene.Geometry) *Tree {
	count := g.TriangleCount()
	prims := make([]primitive, count)
	for i := 0; i < count; i++ {
		a, b, c := g.Triangle(i)
		minV := vmin(vmin(a, b), c)
		maxV := vmax(vmax(a, b), c)
		prims[i] = primitive{min: minV, max: maxV, center: minV.Add(maxV).Mul(0.5), triangle: int32(i)}
	}

	t := &Tree{Nodes: make([]Node, 0, 2*count/maxLeafSize+1)}
	if count == 0 {
		return t
	}
	// Slot 0 is the root. Child indices are always > 0 so W can flag inner nodes.
	t.Nodes = append(t.Nodes, Node{})
	t.split(0, prims)
	return t
}

func (t *Tree) split(index int, prims []primitive) {
	minV, maxV := prims[0].min, prims[0].max
	for _, p := range prims[1:] {
		minV = vmin(minV, p.min)
		maxV = vmax(maxV, p.max)
	}

	if len(prims) <= maxLeafSize {
		first := len(t.Triangles)
		for _, p := range prims {
			t.Triangles = append(t.Triangles, p.triangle)
		}
		t.Nodes[index] = Node{
			Min: minV.Vec4(-float32(first)),
			Max: maxV.Vec4(-float32(len(prims))),
		}
		return
	}

	extent := maxV.Sub(minV)
	axis := 0
	if extent.Y() > extent[axis] {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}
	sort.Slice(prims, func(i, j int) bool { return prims[i].center[axis] < prims[j].center[axis] })
	mid := len(prims) / 2

	left := len(t.Nodes)
	right := left + 1
	t.Nodes = append(t.Nodes, Node{}, Node{})
	t.Nodes[index] = Node{
		Min: minV.Vec4(float32(left)),
		Max: maxV.Vec4(float32(right)),
	}
	t.split(left, prims[:mid])
	t.split(right, prims[mid:])
}

// Depth returns the depth of the tree, 0 for an empty tree.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var depth func(i int) int
	depth = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 1
		}
		l, r := depth(int(n.Min.W())), depth(int(n.Max.W()))
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return depth(0)
}

// Raycast returns the nearest triangle hit of a local-space ray.
func (t *Tree) Raycast(ray scene.Ray, g *scene.Geometry) (scene.Hit, bool) {
	if t.disposed || len(t.Nodes) == 0 {
		return scene.Hit{}, false
	}
	inv := mgl32.Vec3{1 / ray.Direction.X(), 1 / ray.Direction.Y(), 1 / ray.Direction.Z()}
	best := scene.Hit{Triangle: -1, Distance: float32(math.Inf(1))}
	found := false

	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Nodes[i]
		near, ok := slab(ray.Origin, inv, n.Min.Vec3(), n.Max.Vec3())
		if !ok || near > best.Distance {
			continue
		}
		if !n.IsLeaf() {
			stack = append(stack, int(n.Min.W()), int(n.Max.W()))
			continue
		}
		first, count := int(-n.Min.W()), int(-n.Max.W())
		for _, tri := range t.Triangles[first : first+count] {
			a, b, c := g.Triangle(int(tri))
			if d, ok := scene.IntersectTriangle(ray, a, b, c); ok && d < best.Distance {
				best = scene.Hit{Distance: d, Triangle: int(tri)}
				found = true
			}
		}
	}
	return best, found
}

// Dispose drops the tree's storage.
func (t *Tree) Dispose() {
	t.disposed = true
	t.Nodes = nil
	t.Triangles = nil
}

// Disposed reports whether Dispose has been called.
func (t *Tree) Disposed() bool {
	return t.disposed
}

func slab(origin, inv, minV, maxV mgl32.Vec3) (float32, bool) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	for a := 0; a < 3; a++ {
		t1 := (minV[a] - origin[a]) * inv[a]
		t2 := (maxV[a] - origin[a]) * inv[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		// NaN from 0*Inf means the ray lies in the slab plane; keep the interval.
		if t1 == t1 && t1 > tmin {
			tmin = t1
		}
		if t2 == t2 && t2 < tmax {
			tmax = t2
		}
	}
	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	return tmin, true
}

func vmin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func vmax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

var installOnce sync.Once

// Install makes every mesh raycast use its bounds tree when one is attached.
// It must be called by the host before scenes are built; repeated calls are no-ops.
func Install() {
	installOnce.Do(func() {
		scene.SetMeshRaycaster(accelerated)
		logger.Log.Debug("BVH raycast installed")
	})
}

// Installed reports whether Install has run.
func Installed() bool {
	return scene.MeshRaycasterInstalled()
}

func accelerated(m *scene.Mesh, local scene.Ray) (scene.Hit, bool) {
	if m.Geometry == nil || m.Geometry.BoundsTree == nil {
		return scene.BruteForceRaycast(m, local)
	}
	return m.Geometry.BoundsTree.Raycast(local, m.Geometry)
}

// Attach builds a tree for every mesh under root that lacks one and returns
// how many were built.
func Attach(root scene.Node) int {
	built := 0
	scene.Walk(root, scene.MeshVisitor(func(m *scene.Mesh) {
		if m.Geometry == nil || m.Geometry.BoundsTree != nil {
			return
		}
		m.Geometry.BoundsTree = Build(m.Geometry)
		built++
	}))
	if built > 0 {
		logger.Log.Debug("Built bounds trees", zap.Int("count", built))
	}
	return built
}

// Detach disposes every tree under root and returns how many were removed.
func Detach(root scene.Node) int {
	removed := 0
	scene.Walk(root, scene.MeshVisitor(func(m *scene.Mesh) {
		if m.Geometry == nil || m.Geometry.BoundsTree == nil {
			return
		}
		m.Geometry.BoundsTree.Dispose()
		m.Geometry.BoundsTree = nil
		removed++
	}))
	return removed
}
