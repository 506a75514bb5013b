// Package content builds the scene collections the testbed can show: the
// procedural room, the procedural terrain and manifest driven LOD chains.
package content

import (
	"math"

	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// Initial view of the procedural room.
var (
	ProceduralCameraPosition = mgl32.Vec3{0, 10, 30}
	ProceduralControlTarget  = mgl32.Vec3{0, 5, 0}
)

const (
	roomSize   = 20
	roomHeight = 15
)

// BuildProceduralRoom builds a closed room with colored side walls, two boxes
// and a ceiling light. The floor is tagged reflective and carries a hidden
// proxy the reflection pass swaps in.
func BuildProceduralRoom() *scene.Group {
	group := scene.NewGroup("Procedural Scene")

	red := scene.NewPhysicalMaterial("Red Wall", scene.Hex(0xff0000))
	green := scene.NewPhysicalMaterial("Green Wall", scene.Hex(0x00ff00))
	gray := scene.NewPhysicalMaterial("Gray", scene.Hex(0xdddddd))

	wall := func(name string, mat *scene.Material, w, d float32) *scene.Mesh {
		m := scene.NewMesh(name, scene.NewPlaneGeometry(w, d, 1), mat)
		m.ReceiveShadow = true
		scene.Add(group, m)
		return m
	}

	left := wall("Left Wall", red, roomHeight, roomSize)
	left.Rotate(0, 0, -math.Pi/2)
	left.SetPosition(-roomSize/2, roomHeight/2, 0)

	right := wall("Right Wall", green, roomHeight, roomSize)
	right.Rotate(0, 0, math.Pi/2)
	right.SetPosition(roomSize/2, roomHeight/2, 0)

	back := wall("Back Wall", gray, roomSize, roomHeight)
	back.Rotate(math.Pi/2, 0, 0)
	back.SetPosition(0, roomHeight/2, -roomSize/2)

	ceiling := wall("Ceiling", gray, roomSize, roomSize)
	ceiling.Rotate(math.Pi, 0, 0)
	ceiling.SetPosition(0, roomHeight, 0)

	floor := wall("Floor", gray, roomSize, roomSize)
	floor.Tag(scene.TagFloor, scene.TagReflectiveFloor)

	mirror := scene.NewStandardMaterial("Floor Mirror", scene.Hex(0xdddddd))
	mirror.Metalness = 0.2
	mirror.Roughness = 0.05
	proxy := scene.NewMesh("Floor Reflector", scene.NewPlaneGeometry(roomSize, roomSize, 1), mirror)
	proxy.Tag(scene.TagReflectiveProxy, scene.TagReflectiveFloor)
	proxy.ReceiveShadow = true
	proxy.Visible = false
	scene.Add(group, proxy)

	tall := scene.NewMesh("Tall Box", scene.NewBoxGeometry(5, 7, 5), gray)
	tall.Rotate(0, math.Pi/4, 0)
	tall.SetPosition(-3, 3.5, -2)
	tall.CastShadow, tall.ReceiveShadow = true, true
	scene.Add(group, tall)

	short := scene.NewMesh("Short Box", scene.NewBoxGeometry(4, 4, 4), gray)
	short.Rotate(0, -math.Pi/10, 0)
	short.SetPosition(4, 2, 4)
	short.CastShadow, short.ReceiveShadow = true, true
	scene.Add(group, short)

	point := scene.NewPointLight(scene.Hex(0xffffff), 100, 100)
	point.Name = "Main Point Light"
	point.SetPosition(0, roomHeight-0.55, 0)
	point.CastShadow = true
	point.ShadowMapSize = 1024
	point.ShadowBias = -0.0025
	scene.Add(group, point)

	// A dim key light gives shadows a direction and carries the lens flares.
	key := scene.NewDirectionalLight(scene.Hex(0xfff4e0), 0.6)
	key.Name = "Key Light"
	key.Tag(scene.TagPrimaryLight)
	key.SetPosition(6, roomHeight-1, 8)
	key.CastShadow = true
	key.ShadowMapSize = 1024
	scene.Add(group, key)

	lamp := scene.NewMesh("Main Light Source Mesh", scene.NewCircleGeometry(2.5, 64), scene.NewBasicMaterial("Lamp", scene.Hex(0xffffff)))
	lamp.Rotate(math.Pi, 0, 0)
	lamp.SetPosition(0, roomHeight-0.01, 0)
	lamp.Tag(scene.TagLightSourceGeometry, scene.TagReflectionExcluded)
	scene.Add(group, lamp)

	ambient := scene.NewAmbientLight(scene.Hex(0x0c0c0c), 1)
	ambient.Name = "Ambient Light"
	scene.Add(group, ambient)

	return group
}
