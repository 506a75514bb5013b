package content

import (
	"fmt"

	"GopherTestbed/internal/optimization"
	"GopherTestbed/internal/scene"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// TerrainCollectionID names the built-in perlin terrain collection.
const TerrainCollectionID = "terrain"

// Initial view of the terrain.
var (
	TerrainCameraPosition = mgl32.Vec3{0, 18, 48}
	TerrainControlTarget  = mgl32.Vec3{0, 0, 0}
)

// TerrainOptions shapes the generated heightfield.
type TerrainOptions struct {
	Seed      int64
	Size      float32
	Height    float32
	Segments  int // at the most detailed level
	Levels    int
	Frequency float64
}

func DefaultTerrainOptions() TerrainOptions {
	return TerrainOptions{
		Seed:      1337,
		Size:      60,
		Height:    6,
		Segments:  128,
		Levels:    3,
		Frequency: 0.06,
	}
}

// BuildTerrain samples perlin noise into an LOD chain of heightfields, each
// level at half the resolution of the previous one.
func BuildTerrain(opts TerrainOptions, lodBias float32) (*scene.Group, int) {
	noise := perlin.NewPerlin(2, 2, 3, opts.Seed)
	height := func(x, z float32) float32 {
		return float32(noise.Noise2D(float64(x)*opts.Frequency, float64(z)*opts.Frequency)) * opts.Height
	}

	group := scene.NewGroup("Procedural Terrain")
	lod := scene.NewLOD("Terrain LOD")
	scene.Add(group, lod)

	mat := scene.NewStandardMaterial("Terrain", scene.Hex(0x6b8f4e))
	mat.Roughness = 0.85

	triangles := 0
	segments := max(opts.Segments, 2)
	for i := 0; i < max(opts.Levels, 1); i++ {
		g := scene.NewPlaneGeometry(opts.Size, opts.Size, segments)
		for j, p := range g.Positions {
			g.Positions[j] = mgl32.Vec3{p.X(), height(p.X(), p.Z()), p.Z()}
		}
		g.ComputeVertexNormals()
		g.ComputeBoundingSphere()

		m := scene.NewMesh(fmt.Sprintf("Terrain LOD%d", i), g, mat)
		m.CastShadow, m.ReceiveShadow = true, true
		lod.AddLevel(m, optimization.LevelDistance(i, lodBias))
		triangles += g.TriangleCount()

		segments = max(segments/2, 2)
	}

	sun := scene.NewDirectionalLight(scene.Hex(0xffffff), 1.4)
	sun.Name = "Sun"
	sun.Tag(scene.TagPrimaryLight)
	sun.SetPosition(20, 30, 10)
	sun.CastShadow = true
	sun.ShadowMapSize = 2048
	scene.Add(group, sun)
	scene.Add(group, scene.NewAmbientLight(scene.Hex(0x404a55), 0.4))

	return group, triangles
}
