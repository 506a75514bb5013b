package lighting

import (
	"testing"

	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var raster = Presentation{Backend: settings.RendererOpenGL}

func hdrTexture(name string) *scene.Texture {
	const w, h = 8, 4
	rgb := make([]float32, w*h*3)
	for i := range rgb {
		rgb[i] = float32(i%7) / 7
	}
	return scene.NewHDRTexture(name, w, h, rgb)
}

func TestApplyProceduralEnvironment(t *testing.T) {
	sc := scene.New()
	r := NewReconciler()

	r.Apply(sc, raster, nil, true)
	assert.Equal(t, StateProcedural, r.State())
	require.NotNil(t, sc.Environment)
	assert.Same(t, r.Active(), sc.Environment)
	assert.Equal(t, scene.Hex(ProceduralBackground), sc.Background)

	first := sc.Environment
	r.Apply(sc, raster, nil, true)
	assert.Same(t, first, sc.Environment, "reapplying the same state keeps the texture")
	assert.Equal(t, 0, first.DisposeCount())
}

func TestEnvironmentDisposalExactlyOnce(t *testing.T) {
	sc := scene.New()
	r := NewReconciler()
	a := hdrTexture("a")
	b := hdrTexture("b")

	// none -> A
	r.Apply(sc, raster, a, true)
	assert.Equal(t, StateLoaded, r.State())
	assert.Same(t, a, r.Source())
	assert.Equal(t, scene.Hex(LoadedBackground), sc.Background)
	derivA := sc.Environment
	require.NotNil(t, derivA)
	assert.NotSame(t, a, derivA)

	// A -> A
	r.Apply(sc, raster, a, true)
	assert.Equal(t, 0, a.DisposeCount())
	assert.Same(t, derivA, sc.Environment)
	assert.Equal(t, 0, derivA.DisposeCount())

	// A -> B
	r.Apply(sc, raster, b, true)
	assert.Equal(t, 1, a.DisposeCount())
	assert.Equal(t, 1, derivA.DisposeCount())
	derivB := sc.Environment
	assert.Equal(t, 0, b.DisposeCount())
	assert.Equal(t, 0, derivB.DisposeCount())

	// B -> none
	r.Apply(sc, raster, nil, false)
	assert.Equal(t, StateNone, r.State())
	assert.Nil(t, sc.Environment)
	assert.Equal(t, 1, b.DisposeCount())
	assert.Equal(t, 1, derivB.DisposeCount())
	assert.Equal(t, 1, a.DisposeCount())

	r.Apply(sc, raster, nil, false)
	assert.Equal(t, 1, b.DisposeCount())
}

func TestDisabledEnvironmentDisposesOfferedTexture(t *testing.T) {
	sc := scene.New()
	r := NewReconciler()
	stale := hdrTexture("stale")

	r.Apply(sc, raster, stale, false)
	assert.Equal(t, StateNone, r.State())
	assert.Equal(t, 1, stale.DisposeCount())
	assert.Nil(t, r.Source())
}

func TestPresentationSwitchKeepsSource(t *testing.T) {
	sc := scene.New()
	r := NewReconciler()
	a := hdrTexture("a")
	r.Apply(sc, raster, a, true)
	filtered := sc.Environment
	assert.Equal(t, 4, filtered.Width, "raster derivative is half resolution")

	r.Present(sc, Presentation{Backend: settings.RendererOpenGL, PathTracing: true})
	assert.Same(t, a, r.Source())
	assert.Equal(t, 0, a.DisposeCount())
	assert.Equal(t, 1, filtered.DisposeCount())
	require.NotNil(t, sc.Environment)
	assert.Equal(t, 8, sc.Environment.Width)
	assert.Equal(t, a.HDR, sc.Environment.HDR)

	r.Present(sc, raster)
	assert.Equal(t, 0, a.DisposeCount())
	assert.Equal(t, 4, sc.Environment.Width)
}

func TestReconcilerDispose(t *testing.T) {
	sc := scene.New()
	r := NewReconciler()
	a := hdrTexture("a")
	r.Apply(sc, raster, a, true)
	deriv := sc.Environment

	r.Dispose(sc)
	assert.Nil(t, sc.Environment)
	assert.Equal(t, 1, a.DisposeCount())
	assert.Equal(t, 1, deriv.DisposeCount())
	assert.Equal(t, StateNone, r.State())
}

func TestApplyWithoutSceneDisposesOffer(t *testing.T) {
	r := NewReconciler()
	a := hdrTexture("a")
	r.Apply(nil, raster, a, true)
	assert.Equal(t, 1, a.DisposeCount())
}

func TestBlurPreservesConstantField(t *testing.T) {
	rgb := make([]float32, 4*3*3)
	for i := range rgb {
		rgb[i] = 2
	}
	for _, v := range blur(rgb, 4, 3) {
		assert.InDelta(t, 2, v, 1e-6)
	}
}

func TestSyncLensFlares(t *testing.T) {
	light := scene.NewDirectionalLight(scene.Hex(0xffffff), 1)

	assert.Nil(t, SyncLensFlares(nil, nil, true))

	flare := SyncLensFlares(light, nil, true)
	require.NotNil(t, flare)
	require.Len(t, flare.Elements, 2)
	assert.Equal(t, float32(96), flare.Elements[0].Size)
	assert.Equal(t, float32(0), flare.Elements[0].Distance)
	assert.Equal(t, float32(128), flare.Elements[1].Size)
	assert.Equal(t, float32(0.4), flare.Elements[1].Distance)
	assert.Equal(t, scene.Hex(0xf7b545), flare.Elements[0].Color)
	assert.Contains(t, light.Children(), scene.Node(flare))

	assert.Same(t, flare, SyncLensFlares(light, flare, true), "enabled twice keeps one flare")

	textures := []*scene.Texture{flare.Elements[0].Texture, flare.Elements[1].Texture}
	assert.Nil(t, SyncLensFlares(light, flare, false))
	assert.Empty(t, light.Children())
	for _, tex := range textures {
		assert.Equal(t, 1, tex.DisposeCount())
	}
}

func TestFlareTextureFadesOut(t *testing.T) {
	tex := flareTexture("probe", scene.Hex(0x45e3c2))
	require.NotNil(t, tex.Image)
	assert.Equal(t, flareTextureSize, tex.Width)

	_, _, _, centerA := tex.Image.At(64, 64).RGBA()
	_, _, _, cornerA := tex.Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), centerA)
	assert.Equal(t, uint32(0), cornerA)
}

func TestSyncReflectors(t *testing.T) {
	sc := scene.New()
	proxy := scene.NewMesh("floor-proxy", scene.NewPlaneGeometry(4, 4, 1), nil)
	proxy.Tag(scene.TagReflectiveProxy)
	sc.Add(proxy)

	assert.Equal(t, 1, SyncReflectors(sc, true, pipeline.Size{Width: 800, Height: 600}))
	require.NotNil(t, proxy.Reflector)
	target := proxy.Reflector
	assert.Equal(t, 800, target.Width)

	SyncReflectors(sc, true, pipeline.Size{Width: 1024, Height: 768})
	assert.Same(t, target, proxy.Reflector)
	assert.Equal(t, 1024, target.Width)

	SyncReflectors(sc, true, pipeline.Size{})
	assert.Equal(t, 1024, target.Width, "zero viewport keeps the size")

	assert.Equal(t, 0, SyncReflectors(sc, false, pipeline.Size{Width: 1, Height: 1}))
	assert.Nil(t, proxy.Reflector)
	assert.Equal(t, 1, target.DisposeCount())
}
