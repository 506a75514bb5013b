package pipeline

import (
	"testing"

	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomScene() (*scene.Scene, *scene.Mesh, *scene.Mesh, *scene.Mesh) {
	sc := scene.New()
	floor := scene.NewMesh("floor", scene.NewGeometry(nil, nil), scene.NewStandardMaterial("floor", mgl32.Vec3{1, 1, 1}))
	floor.Tag(scene.TagFloor, scene.TagReflectiveFloor)
	proxy := scene.NewMesh("floor-proxy", scene.NewGeometry(nil, nil), scene.NewStandardMaterial("proxy", mgl32.Vec3{1, 1, 1}))
	proxy.Tag(scene.TagReflectiveProxy)
	proxy.Visible = false
	lamp := scene.NewMesh("lamp", scene.NewGeometry(nil, nil), scene.NewBasicMaterial("lamp", mgl32.Vec3{1, 1, 1}))
	lamp.Tag(scene.TagReflectionExcluded)
	light := scene.NewDirectionalLight(scene.Hex(0xffffff), 1)
	light.CastShadow = true
	sc.Add(floor, proxy, lamp, light)
	return sc, floor, proxy, lamp
}

func defaults() *settings.RenderingSettings {
	s := settings.DefaultRenderingSettings()
	return &s
}

func TestDiscreteParameters(t *testing.T) {
	sc, _, _, _ := roomScene()
	s := defaults()
	s.AntiAliasing = settings.AntiAliasingSMAA
	s.SMAAQuality = settings.QualityHigh
	s.AOQuality = settings.QualityLow
	s.AORadius = 10
	s.DepthOfField = true
	s.DOFFocus = 7
	s.TAASamples = 0

	p := NewDiscretePasses(sc, nil, s)
	ApplyPostProcessing(p, s, settings.RendererOpenGL, Size{800, 600}, sc)

	assert.True(t, p.SMAA.Enabled)
	assert.False(t, p.FXAA.Enabled)
	assert.Equal(t, 1000, p.SMAA.Width)
	assert.Equal(t, 750, p.SMAA.Height)
	assert.Equal(t, 0, p.TAA.SampleLevel)
	assert.True(t, p.AO.Enabled)
	assert.InDelta(t, 8.0, p.AO.KernelRadius, 1e-5)
	assert.True(t, p.DOF.Enabled)
	assert.Equal(t, float32(7), p.DOF.Focus)
	assert.True(t, p.Vignette.Enabled)
	assert.InDelta(t, 1.0/800, p.FXAA.Resolution[0], 1e-7)
}

func TestDiscreteIdempotent(t *testing.T) {
	sc, _, _, _ := roomScene()
	s := defaults()
	s.ScreenSpaceReflections = true
	p := NewDiscretePasses(sc, nil, s)

	ApplyPostProcessing(p, s, settings.RendererOpenGL, Size{640, 480}, sc)
	first := p.EnabledStages()
	snapshot := *p.AO
	ApplyPostProcessing(p, s, settings.RendererOpenGL, Size{640, 480}, sc)

	assert.Equal(t, first, p.EnabledStages())
	assert.Equal(t, snapshot, *p.AO)
	assert.Len(t, p.Reflection.Selects, 1)
}

func TestDiscreteRespectsAvailability(t *testing.T) {
	s := defaults()
	s.RayTracing = true
	s.ScreenSpaceReflections = true
	sc, _, _, _ := roomScene()
	p := NewDiscretePasses(sc, nil, s)
	ApplyPostProcessing(p, s, settings.RendererOpenGL, Size{100, 100}, sc)
	assert.False(t, p.Reflection.Enabled)
}

func TestReflectiveFloorSwap(t *testing.T) {
	sc, floor, proxy, lamp := roomScene()
	s := defaults()
	s.ScreenSpaceReflections = true
	p := NewDiscretePasses(sc, nil, s)

	ApplyPostProcessing(p, s, settings.RendererOpenGL, Size{100, 100}, sc)
	assert.True(t, proxy.Visible)
	assert.False(t, floor.Visible)
	assert.NotContains(t, p.Reflection.Selects, lamp)
	assert.NotContains(t, p.Reflection.Selects, proxy)
	assert.Contains(t, p.Reflection.Selects, floor)

	s2 := s.Clone()
	s2.ScreenSpaceReflections = false
	ApplyPostProcessing(p, s2, settings.RendererOpenGL, Size{100, 100}, sc)
	assert.False(t, proxy.Visible)
	assert.True(t, floor.Visible)
	assert.Empty(t, p.Reflection.Selects)
}

func TestGraphCompositionOrder(t *testing.T) {
	sc, _, _, _ := roomScene()
	s := defaults()
	s.AmbientOcclusion = true
	s.DepthOfField = true
	s.ScreenSpaceReflections = true
	s.FilmGrain = true
	s.AntiAliasing = settings.AntiAliasingTAA

	g := NewGraphPipeline(sc, nil)
	ApplyPostProcessing(g, s, settings.RendererWebGPU, Size{320, 200}, sc)

	assert.Equal(t, []NodeKind{NodeScenePass, NodeAO, NodeDOF, NodeReflection, NodeTAA, NodeFilmGrain}, g.Output.Chain())
	assert.Equal(t, AllTargets, g.ActiveTargets)
	assert.Equal(t, Size{320, 200}, g.Size)
}

func TestGraphExcludesDisabledNodes(t *testing.T) {
	s := defaults()
	s.AmbientOcclusion = false
	s.AntiAliasing = settings.AntiAliasingMSAA
	s.Vignette = true

	g := NewGraphPipeline(nil, nil)
	ApplyPostProcessing(g, s, settings.RendererWebGPU, Size{320, 200}, nil)
	assert.Equal(t, []NodeKind{NodeScenePass}, g.Output.Chain())
	assert.Equal(t, []Target{TargetColor}, g.ActiveTargets)
}

func TestGraphIdempotent(t *testing.T) {
	sc, _, _, _ := roomScene()
	s := defaults()
	s.AntiAliasing = settings.AntiAliasingFXAA
	s.DepthOfField = true
	g := NewGraphPipeline(sc, nil)

	ApplyPostProcessing(g, s, settings.RendererWebGPU, Size{320, 200}, sc)
	first := g.Output
	ApplyPostProcessing(g, s, settings.RendererWebGPU, Size{320, 200}, sc)

	assert.NotSame(t, first, g.Output, "graph is rebuilt")
	assert.Equal(t, first, g.Output)
}

type fakeRenderer struct {
	curve    settings.ToneMapping
	exposure float32
	shadows  bool
	kind     scene.ShadowMapType
}

func (f *fakeRenderer) SetToneMapping(c settings.ToneMapping, e float32) { f.curve, f.exposure = c, e }
func (f *fakeRenderer) SetShadowMap(enabled bool, kind scene.ShadowMapType) {
	f.shadows, f.kind = enabled, kind
}

func TestApplyToneMapping(t *testing.T) {
	r := &fakeRenderer{}
	p := NewDiscretePasses(nil, nil, defaults())
	ss := settings.DefaultSceneSettings()
	ss.ToneMapping = settings.ToneMappingReinhard
	ss.Exposure = 1.5

	ApplyToneMapping(r, p, &ss)
	assert.Equal(t, settings.ToneMappingReinhard, r.curve)
	assert.Equal(t, float32(1.5), p.Output.Exposure)
}

func TestShadowFallbackOnWebGPU(t *testing.T) {
	r := &fakeRenderer{}
	s := defaults()
	s.ShadowType = settings.ShadowVSM

	res := ApplyShadowSettings(r, s, settings.RendererWebGPU, nil)
	assert.Equal(t, settings.ShadowPCF, res.Applied)
	assert.Equal(t, "Shadow type VSM is not supported by WebGPU; using PCF.", res.FallbackMessage)
	assert.Equal(t, scene.ShadowMapPCF, r.kind)

	res = ApplyShadowSettings(r, s, settings.RendererOpenGL, nil)
	assert.Empty(t, res.FallbackMessage)
	assert.Equal(t, scene.ShadowMapVSM, r.kind)
}

func TestTextureFiltering(t *testing.T) {
	sc := scene.New()
	mat := scene.NewStandardMaterial("m", mgl32.Vec3{1, 1, 1})
	mat.Map = scene.NewTexture("albedo", nil)
	mat.NormalMap = scene.NewTexture("normal", nil)
	sc.Add(scene.NewMesh("a", scene.NewGeometry(nil, nil), mat))
	unlit := scene.NewBasicMaterial("u", mgl32.Vec3{1, 1, 1})
	unlit.Map = scene.NewTexture("ignored", nil)
	sc.Add(scene.NewMesh("b", scene.NewGeometry(nil, nil), unlit))

	s := defaults()
	s.TextureFiltering = settings.FilteringAnisotropic
	s.Anisotropy = 16
	n := ApplyTextureFiltering(sc, s, capabilities.Summary{MaxAnisotropy: 8})
	require.Equal(t, 2, n)
	assert.Equal(t, 8, mat.Map.Anisotropy)
	assert.True(t, mat.NormalMap.NeedsUpdate)
	assert.False(t, unlit.Map.NeedsUpdate)

	s.TextureFiltering = settings.FilteringLinear
	ApplyTextureFiltering(sc, s, capabilities.Summary{MaxAnisotropy: 8})
	assert.Equal(t, scene.FilterLinear, mat.Map.MinFilter)
	assert.Equal(t, 1, mat.Map.Anisotropy)
}

func TestNewSelectsRepresentation(t *testing.T) {
	_, ok := New(settings.RendererOpenGL, nil, nil, defaults()).(*DiscretePasses)
	assert.True(t, ok)
	_, ok = New(settings.RendererWebGPU, nil, nil, defaults()).(*GraphPipeline)
	assert.True(t, ok)
}
