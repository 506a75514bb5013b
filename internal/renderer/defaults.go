package renderer

import (
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// Stage is the default scene every backend build starts from.
type Stage struct {
	Scene        *scene.Scene
	Camera       *scene.PerspectiveCamera
	PrimaryLight *scene.Light
}

// CreateScene builds the reference stage: grid, ground disc, ambient fill,
// a shadow casting key light and a rim light.
func CreateScene() Stage {
	sc := scene.New()
	sc.Background = scene.Hex(0x0b1117)

	camera := scene.NewPerspectiveCamera(55, 1, 0.1, 200)
	camera.SetPosition(5, 4.5, 8)
	camera.LookAt(mgl32.Vec3{})

	grid := scene.NewGrid(40, 40)
	grid.SetPosition(0, -0.01, 0)
	sc.Add(grid)

	floorMaterial := scene.NewStandardMaterial("ground", scene.Hex(0x0f1a22))
	floorMaterial.Metalness = 0.1
	floorMaterial.Roughness = 0.7
	floor := scene.NewMesh("ground", scene.NewCircleGeometry(12, 64), floorMaterial)
	floor.ReceiveShadow = true
	sc.Add(floor)

	sc.Add(scene.NewAmbientLight(scene.Hex(0x9fb3c8), 0.35))

	key := scene.NewDirectionalLight(scene.Hex(0xffffff), 1.2)
	key.SetPosition(6, 8, 4)
	key.CastShadow = true
	key.ShadowMapSize = 2048
	key.Tag(scene.TagPrimaryLight)
	sc.Add(key)

	rim := scene.NewPointLight(scene.Hex(0x45e3c2), 0.9, 40)
	rim.SetPosition(-5, 4, -6)
	sc.Add(rim)

	return Stage{Scene: sc, Camera: camera, PrimaryLight: key}
}

// CreateControls attaches damped orbit controls to the camera.
func CreateControls(camera *scene.PerspectiveCamera, autoRotate bool) *scene.OrbitControls {
	controls := scene.NewOrbitControls(camera)
	controls.EnableDamping = true
	controls.AutoRotate = autoRotate
	controls.AutoRotateSpeed = 0.5
	return controls
}
