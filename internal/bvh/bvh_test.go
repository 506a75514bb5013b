package bvh

import (
	"math/rand"
	"testing"

	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func grid(n int) *scene.Geometry {
	var pos []mgl32.Vec3
	var idx []uint32
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			pos = append(pos, mgl32.Vec3{float32(x), 0, float32(z)})
		}
	}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			i := uint32(z*(n+1) + x)
			idx = append(idx, i, i+uint32(n+1), i+1, i+1, i+uint32(n+1), i+uint32(n+2))
		}
	}
	return scene.NewGeometry(pos, idx)
}

func TestBuildCoversEveryTriangle(t *testing.T) {
	g := grid(8)
	tree := Build(g)
	if len(tree.Triangles) != g.TriangleCount() {
		t.Fatalf("Expected %d triangles in leaves, got %d", g.TriangleCount(), len(tree.Triangles))
	}
	seen := make(map[int32]bool)
	for _, tri := range tree.Triangles {
		if seen[tri] {
			t.Errorf("Triangle %d stored twice", tri)
		}
		seen[tri] = true
	}
	if tree.Depth() < 2 {
		t.Errorf("Expected a multi-level tree, got depth %d", tree.Depth())
	}
}

func TestRaycastMatchesBruteForce(t *testing.T) {
	g := grid(10)
	m := scene.NewMesh("grid", g, nil)
	tree := Build(g)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		ray := scene.Ray{
			Origin:    mgl32.Vec3{rng.Float32() * 10, 5, rng.Float32() * 10},
			Direction: mgl32.Vec3{rng.Float32()*0.4 - 0.2, -1, rng.Float32()*0.4 - 0.2},
		}
		want, wantOK := scene.BruteForceRaycast(m, ray)
		got, gotOK := tree.Raycast(ray, g)
		if wantOK != gotOK {
			t.Fatalf("ray %d: expected hit=%v, got %v", i, wantOK, gotOK)
		}
		if wantOK && (got.Distance-want.Distance > 1e-4 || want.Distance-got.Distance > 1e-4) {
			t.Errorf("ray %d: expected distance %f, got %f", i, want.Distance, got.Distance)
		}
	}
}

func TestAttachDetach(t *testing.T) {
	root := scene.NewGroup("root")
	scene.Add(root, scene.NewMesh("a", grid(2), nil))
	scene.Add(root, scene.NewMesh("b", grid(2), nil))

	if n := Attach(root); n != 2 {
		t.Errorf("Expected 2 trees built, got %d", n)
	}
	if n := Attach(root); n != 0 {
		t.Errorf("Expected second attach to build nothing, got %d", n)
	}
	if n := Detach(root); n != 2 {
		t.Errorf("Expected 2 trees removed, got %d", n)
	}
	if n := Detach(root); n != 0 {
		t.Errorf("Expected second detach to remove nothing, got %d", n)
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	Install()
	Install()
	if !Installed() {
		t.Fatal("Expected raycast to be installed")
	}
	m := scene.NewMesh("g", grid(4), nil)
	Attach(m)
	hit, ok := m.Raycast(scene.Ray{Origin: mgl32.Vec3{1.3, 3, 2.2}, Direction: mgl32.Vec3{0, -1, 0}})
	if !ok || hit.Distance < 2.99 || hit.Distance > 3.01 {
		t.Errorf("Expected hit at distance 3, got %v %v", ok, hit.Distance)
	}
}
