package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quad(name string) *Mesh {
	g := NewGeometry([]mgl32.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1},
	}, []uint32{0, 2, 1, 0, 3, 2})
	return NewMesh(name, g, NewStandardMaterial(name, mgl32.Vec3{1, 1, 1}))
}

func TestAddReparents(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	m := quad("m")

	Add(a, m)
	Add(b, m)

	if len(a.Children()) != 0 {
		t.Errorf("Expected a to lose its child, got %d children", len(a.Children()))
	}
	if m.Parent() != Node(b) {
		t.Errorf("Expected parent b, got %v", m.Parent())
	}
}

func TestTraverseOrderAndTags(t *testing.T) {
	s := New()
	floor := quad("floor")
	floor.Tag(TagFloor, TagReflectiveFloor)
	proxy := quad("proxy")
	proxy.Tag(TagReflectiveProxy)
	room := NewGroup("room")
	Add(room, floor)
	Add(room, proxy)
	s.Add(room, NewGrid(40, 40))

	var names []string
	Traverse(s.Root(), func(n Node) { names = append(names, n.Object().Name) })
	want := []string{"Scene", "room", "floor", "proxy", "Grid"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, names[i])
		}
	}

	if got := FindTagged(s.Root(), TagReflectiveProxy); len(got) != 1 || got[0] != Node(proxy) {
		t.Errorf("Expected proxy to be found by tag, got %v", got)
	}
	if got := len(Meshes(s.Root())); got != 2 {
		t.Errorf("Expected 2 meshes, got %d", got)
	}
	if FindByName(s.Root(), "floor") != Node(floor) {
		t.Error("Expected FindByName to return the floor")
	}
}

type countingVisitor struct {
	BaseVisitor
	lights, lods int
}

func (v *countingVisitor) VisitLight(*Light) { v.lights++ }
func (v *countingVisitor) VisitLOD(*LOD)     { v.lods++ }

func TestWalkDispatch(t *testing.T) {
	s := New()
	lod := NewLOD("terrain")
	lod.AddLevel(quad("l0"), 0)
	lod.AddLevel(quad("l1"), 12)
	s.Add(NewAmbientLight(Hex(0xffffff), 0.3), NewDirectionalLight(Hex(0xffffff), 1), lod)

	v := &countingVisitor{}
	Walk(s.Root(), v)
	if v.lights != 2 || v.lods != 1 {
		t.Errorf("Expected 2 lights and 1 lod, got %d and %d", v.lights, v.lods)
	}
}

func TestFunctionVisitors(t *testing.T) {
	s := New()
	lod := NewLOD("terrain")
	lod.AddLevel(quad("l0"), 0)
	sun := NewDirectionalLight(Hex(0xffffff), 1)
	s.Add(sun, lod, quad("floor"))

	var lights []*Light
	Walk(s.Root(), LightVisitor(func(l *Light) { lights = append(lights, l) }))
	if len(lights) != 1 || lights[0] != sun {
		t.Errorf("Expected only the sun, got %v", lights)
	}

	var lods []*LOD
	Walk(s.Root(), LODVisitor(func(l *LOD) { lods = append(lods, l) }))
	if len(lods) != 1 || lods[0] != lod {
		t.Errorf("Expected only the terrain LOD, got %v", lods)
	}
}

func TestLODSelect(t *testing.T) {
	lod := NewLOD("lod")
	lod.AddLevel(quad("l0"), 0)
	lod.AddLevel(quad("l1"), 12)
	lod.AddLevel(quad("l2"), 24)

	lod.Update(15)
	if lod.Select(15) != 1 {
		t.Errorf("Expected level 1, got %d", lod.Select(15))
	}
	if lod.Levels[0].Object.Object().Visible || !lod.Levels[1].Object.Object().Visible {
		t.Error("Expected only level 1 to be visible")
	}
}

func TestPrimaryLightPrefersTag(t *testing.T) {
	s := New()
	first := NewDirectionalLight(Hex(0xffffff), 1)
	tagged := NewDirectionalLight(Hex(0xffffff), 1)
	tagged.Tag(TagPrimaryLight)
	s.Add(first, tagged)

	if s.PrimaryLight() != tagged {
		t.Error("Expected tagged light to be primary")
	}
	s.Remove(tagged)
	if s.PrimaryLight() != first {
		t.Error("Expected fallback to first directional light")
	}
}

func TestMeshRaycast(t *testing.T) {
	m := quad("floor")
	m.SetPosition(0, 2, 0)
	hit, ok := m.Raycast(Ray{Origin: mgl32.Vec3{0.3, 10, 0.2}, Direction: mgl32.Vec3{0, -1, 0}})
	if !ok {
		t.Fatal("Expected a hit")
	}
	if math.Abs(float64(hit.Distance-8)) > 1e-4 {
		t.Errorf("Expected distance 8, got %f", hit.Distance)
	}
	if _, ok := m.Raycast(Ray{Origin: mgl32.Vec3{5, 10, 0}, Direction: mgl32.Vec3{0, -1, 0}}); ok {
		t.Error("Expected a miss outside the quad")
	}
}

func TestRaycastUsesInstalledRoutine(t *testing.T) {
	defer SetMeshRaycaster(nil)
	calls := 0
	SetMeshRaycaster(func(m *Mesh, local Ray) (Hit, bool) {
		calls++
		return BruteForceRaycast(m, local)
	})
	if !MeshRaycasterInstalled() {
		t.Fatal("Expected raycaster to be installed")
	}
	hits := Raycast(quad("q"), Ray{Origin: mgl32.Vec3{0.3, 1, 0.2}, Direction: mgl32.Vec3{0, -1, 0}})
	if calls != 1 || len(hits) != 1 {
		t.Errorf("Expected 1 call and 1 hit, got %d and %d", calls, len(hits))
	}
}

func TestTextureDisposeRunsReleaseOnce(t *testing.T) {
	tex := NewTexture("albedo", nil)
	released := 0
	tex.SetRelease(func() { released++ })
	tex.Dispose()
	tex.Dispose()
	if released != 1 {
		t.Errorf("Expected release once, got %d", released)
	}
	if tex.DisposeCount() != 2 {
		t.Errorf("Expected dispose count 2, got %d", tex.DisposeCount())
	}
}

func TestMaterialDisposeSharedMaps(t *testing.T) {
	tex := NewTexture("shared", nil)
	m := NewStandardMaterial("m", mgl32.Vec3{1, 1, 1})
	m.Map = tex
	m.RoughnessMap = tex
	m.Dispose()
	m.Dispose()
	if tex.DisposeCount() != 1 {
		t.Errorf("Expected shared map disposed once, got %d", tex.DisposeCount())
	}
}

func TestOrbitControlsAutoRotateKeepsRadius(t *testing.T) {
	cam := NewPerspectiveCamera(55, 1.5, 0.1, 200)
	cam.SetPosition(5, 4.5, 8)
	ctl := NewOrbitControls(cam)
	r := ctl.Distance()
	ctl.AutoRotate = true
	for i := 0; i < 30; i++ {
		ctl.Update(1.0 / 60)
	}
	if d := cam.Position.Sub(ctl.Target).Len(); math.Abs(float64(d-r)) > 1e-3 {
		t.Errorf("Expected radius %f, got %f", r, d)
	}
	if cam.Position.ApproxEqual(mgl32.Vec3{5, 4.5, 8}) {
		t.Error("Expected the camera to move")
	}
}

func TestViewProjectionZeroToOneDepth(t *testing.T) {
	cam := NewPerspectiveCamera(55, 1, 0.1, 200)
	cam.SetPosition(0, 0, 5)
	m := cam.ViewProjectionZeroToOne()
	var flat mgl32.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			flat[i*4+j] = m[i][j]
		}
	}
	// A point on the near plane lands at depth 0.
	p := flat.Mul4x1(mgl32.Vec4{0, 0, 5 - 0.1, 1})
	if d := p.Z() / p.W(); math.Abs(float64(d)) > 1e-3 {
		t.Errorf("Expected near depth 0, got %f", d)
	}
}
