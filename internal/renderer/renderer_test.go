package renderer

import (
	"errors"
	"image"
	"testing"

	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	backend  settings.RendererMode
	size     pipeline.Size
	bundle   pipeline.Bundle
	disposed bool
}

func (f *fakeRenderer) Backend() settings.RendererMode                      { return f.backend }
func (f *fakeRenderer) Label() string                                       { return f.backend.Label() }
func (f *fakeRenderer) SetSize(size pipeline.Size)                          { f.size = size }
func (f *fakeRenderer) SetPipeline(b pipeline.Bundle)                       { f.bundle = b }
func (f *fakeRenderer) SetToneMapping(settings.ToneMapping, float32)        {}
func (f *fakeRenderer) SetShadowMap(bool, scene.ShadowMapType)              {}
func (f *fakeRenderer) Render(*scene.Scene, *scene.PerspectiveCamera) error { return nil }
func (f *fakeRenderer) Info() Info                                          { return Info{} }
func (f *fakeRenderer) TimerQueries() framestats.QueryAPI                   { return nil }
func (f *fakeRenderer) Dispose()                                            { f.disposed = true }

func openerFor(mode settings.RendererMode, opened *[]settings.RendererMode) Opener {
	return func(opts Options) (Renderer, error) {
		*opened = append(*opened, opts.Mode)
		return &fakeRenderer{backend: mode}, nil
	}
}

func msaaSettings() *settings.RenderingSettings {
	s := settings.DefaultRenderingSettings()
	s.AntiAliasing = settings.AntiAliasingMSAA
	return &s
}

func TestFactoryFallsBackWithoutAdvancedBackend(t *testing.T) {
	var opened []settings.RendererMode
	f := Factory{
		OpenGL: openerFor(settings.RendererOpenGL, &opened),
		WebGPU: openerFor(settings.RendererWebGPU, &opened),
	}

	res, err := f.Create(Options{
		Mode:     settings.RendererWebGPU,
		Settings: msaaSettings(),
		Caps:     capabilities.Summary{AdvancedBackendAvailable: false},
		Size:     pipeline.Size{Width: 640, Height: 480},
	})
	require.NoError(t, err)
	assert.Equal(t, settings.RendererOpenGL, res.Backend)
	assert.Equal(t, "OpenGL", res.Label)
	assert.True(t, res.UsingMSAA)
	assert.Equal(t, []settings.RendererMode{settings.RendererOpenGL}, opened)
	assert.Equal(t, pipeline.Size{Width: 640, Height: 480}, res.Renderer.(*fakeRenderer).size)
}

func TestFactoryOpensAdvancedBackend(t *testing.T) {
	var opened []settings.RendererMode
	f := Factory{
		OpenGL: openerFor(settings.RendererOpenGL, &opened),
		WebGPU: openerFor(settings.RendererWebGPU, &opened),
	}

	res, err := f.Create(Options{
		Mode:     settings.RendererWebGPU,
		Settings: msaaSettings(),
		Caps:     capabilities.Summary{AdvancedBackendAvailable: true},
	})
	require.NoError(t, err)
	assert.Equal(t, settings.RendererWebGPU, res.Backend)
	assert.False(t, res.UsingMSAA, "msaa is an OpenGL framebuffer property")
	assert.True(t, res.Renderer.(*fakeRenderer).size.Empty(), "empty size is not forwarded")
}

func TestFactoryMissingOpener(t *testing.T) {
	_, err := Factory{}.Create(Options{Mode: settings.RendererOpenGL})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFactoryWrapsOpenError(t *testing.T) {
	boom := errors.New("no device")
	f := Factory{OpenGL: func(Options) (Renderer, error) { return nil, boom }}

	_, err := f.Create(Options{Mode: settings.RendererOpenGL})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "open OpenGL renderer")
}

func TestUsesMSAA(t *testing.T) {
	s := msaaSettings()
	assert.True(t, UsesMSAA(settings.RendererOpenGL, s))
	assert.False(t, UsesMSAA(settings.RendererWebGPU, s))
	assert.False(t, UsesMSAA(settings.RendererOpenGL, nil))

	s.AntiAliasing = settings.AntiAliasingFXAA
	assert.False(t, UsesMSAA(settings.RendererOpenGL, s))
}

func TestCreateComposerMatchesBackend(t *testing.T) {
	stage := CreateScene()
	s := settings.DefaultRenderingSettings()

	gl := &fakeRenderer{backend: settings.RendererOpenGL}
	bundle := CreateComposer(gl, stage.Scene, stage.Camera, &s)
	require.NotNil(t, bundle)
	assert.IsType(t, &pipeline.DiscretePasses{}, bundle)
	assert.Same(t, bundle, gl.bundle)

	wg := &fakeRenderer{backend: settings.RendererWebGPU}
	bundle = CreateComposer(wg, stage.Scene, stage.Camera, &s)
	assert.IsType(t, &pipeline.GraphPipeline{}, bundle)

	assert.Nil(t, CreateComposer(nil, stage.Scene, stage.Camera, &s))
}

func TestCreateSceneDefaults(t *testing.T) {
	stage := CreateScene()
	require.NotNil(t, stage.Scene)

	assert.Equal(t, scene.Hex(0x0b1117), stage.Scene.Background)
	assert.Equal(t, float32(55), stage.Camera.Fov)
	assert.Equal(t, mgl32.Vec3{5, 4.5, 8}, stage.Camera.Position)
	assert.Same(t, stage.PrimaryLight, stage.Scene.PrimaryLight())
	assert.True(t, stage.PrimaryLight.CastShadow)
	assert.Equal(t, 2048, stage.PrimaryLight.ShadowMapSize)

	meshes := scene.Meshes(stage.Scene.Root())
	require.Len(t, meshes, 1)
	assert.True(t, meshes[0].ReceiveShadow)

	f := buildFrame(stage.Scene, stage.Camera)
	assert.Len(t, f.grids, 1)
	assert.Same(t, stage.PrimaryLight, f.lights.key)
	require.NotNil(t, f.lights.point)
	assert.Equal(t, scene.Hex(0x45e3c2), f.lights.point.Color)
	assert.InDelta(t, 0.35*scene.Hex(0x9fb3c8).X(), f.lights.ambient.X(), 1e-5)
}

func TestCreateControls(t *testing.T) {
	camera := scene.NewPerspectiveCamera(55, 1, 0.1, 200)
	camera.SetPosition(0, 0, 10)

	c := CreateControls(camera, true)
	assert.True(t, c.AutoRotate)
	assert.True(t, c.EnableDamping)
	assert.Equal(t, float32(0.5), c.AutoRotateSpeed)
	assert.False(t, CreateControls(camera, false).AutoRotate)
}

func TestBuildFrameSkipsHiddenSubtrees(t *testing.T) {
	sc := scene.New()
	box := scene.NewMesh("box", scene.NewBoxGeometry(1, 1, 1), nil)
	hidden := scene.NewGroup("hidden")
	hidden.Visible = false
	scene.Add(hidden, scene.NewMesh("inner", scene.NewBoxGeometry(1, 1, 1), nil))
	sc.Add(box, hidden)

	f := buildFrame(sc, nil)
	require.Len(t, f.items, 1)
	assert.Same(t, box, f.items[0].mesh)
	assert.Equal(t, 12, f.triangles)
}

func TestBuildFrameResolvesLOD(t *testing.T) {
	sc := scene.New()
	lod := scene.NewLOD("terrain")
	near := scene.NewMesh("near", scene.NewPlaneGeometry(4, 4, 8), nil)
	far := scene.NewMesh("far", scene.NewPlaneGeometry(4, 4, 2), nil)
	lod.AddLevel(near, 0)
	lod.AddLevel(far, 12)
	sc.Add(lod)

	camera := scene.NewPerspectiveCamera(55, 1, 0.1, 200)
	camera.SetPosition(0, 0, 5)
	f := buildFrame(sc, camera)
	require.Len(t, f.items, 1)
	assert.Same(t, near, f.items[0].mesh)

	camera.SetPosition(0, 0, 30)
	f = buildFrame(sc, camera)
	require.Len(t, f.items, 1)
	assert.Same(t, far, f.items[0].mesh)
	assert.Equal(t, 8, f.triangles)
}

func TestBuildFramePrefersTaggedKeyLight(t *testing.T) {
	sc := scene.New()
	first := scene.NewDirectionalLight(scene.Hex(0xffffff), 1)
	tagged := scene.NewDirectionalLight(scene.Hex(0xff0000), 1)
	tagged.SetPosition(0, 10, 0)
	tagged.Tag(scene.TagPrimaryLight)
	sc.Add(first, tagged)

	f := buildFrame(sc, nil)
	assert.Same(t, tagged, f.lights.key)
	assert.InDelta(t, -1, f.lights.keyDirection.Y(), 1e-5)
}

func TestGridLines(t *testing.T) {
	lines := gridLines(scene.NewGrid(10, 2))
	assert.Len(t, lines, 12)
	assert.Equal(t, mgl32.Vec3{-5, 0, -5}, lines[0])
	assert.Equal(t, mgl32.Vec3{5, 0, -5}, lines[1])
}

func TestInterleaveDefaultsMissingAttributes(t *testing.T) {
	g := scene.NewGeometry([]mgl32.Vec3{{1, 2, 3}}, nil)
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 0, 1, 0}, interleave(g))
	assert.Equal(t, []uint32{0}, triangleIndices(g))
}

type recordingSetter struct {
	values map[string]any
}

func newRecordingSetter() *recordingSetter {
	return &recordingSetter{values: map[string]any{}}
}

func (r *recordingSetter) SetBool(name string, v bool)       { r.values[name] = v }
func (r *recordingSetter) SetFloat(name string, v float32)   { r.values[name] = v }
func (r *recordingSetter) SetInt(name string, v int32)       { r.values[name] = v }
func (r *recordingSetter) SetVec2(name string, x, y float32) { r.values[name] = mgl32.Vec2{x, y} }
func (r *recordingSetter) SetVec3(name string, v mgl32.Vec3) { r.values[name] = v }

func TestPostStateFromDiscretePasses(t *testing.T) {
	defaults := settings.DefaultRenderingSettings()
	p := pipeline.NewDiscretePasses(nil, nil, &defaults)
	p.SetSize(pipeline.Size{Width: 800, Height: 600})
	p.AO.Enabled, p.AO.KernelRadius = true, 8
	p.SMAA.Enabled, p.SMAA.Width, p.SMAA.Height = true, 1600, 1200
	p.Vignette.Enabled, p.Vignette.Darkness = true, 1.2

	st := postStateFor(p, settings.ToneMappingACES, 1.4)
	assert.True(t, st.ao)
	assert.True(t, st.antialias)
	assert.True(t, st.smaa)
	assert.Equal(t, float32(2), st.smaaScale)
	assert.False(t, st.dof)

	u := newRecordingSetter()
	st.apply(u, p.Size, 0.5)
	assert.Equal(t, true, u.values["smaaEnabled"])
	assert.Equal(t, false, u.values["fxaaEnabled"])
	assert.Equal(t, false, u.values["taaEnabled"])
	assert.Equal(t, int32(4), u.values["toneMapping"])
	assert.Equal(t, float32(1.4), u.values["exposure"])
	assert.Equal(t, float32(1.2), u.values["vignetteDarkness"])
	assert.Equal(t, mgl32.Vec2{800, 600}, u.values["resolution"])
	assert.Equal(t, int32(0), u.values["flareCount"])
}

func TestPostStateTAAUsesSampleLevel(t *testing.T) {
	defaults := settings.DefaultRenderingSettings()
	p := pipeline.NewDiscretePasses(nil, nil, &defaults)
	p.SetSize(pipeline.Size{Width: 640, Height: 480})
	p.TAA.Enabled, p.TAA.SampleLevel = true, 3

	st := postStateFor(p, settings.ToneMappingNone, 1)
	assert.True(t, st.antialias)
	assert.True(t, st.taa)

	u := newRecordingSetter()
	st.apply(u, p.Size, 0)
	assert.Equal(t, false, u.values["fxaaEnabled"])
	assert.Equal(t, true, u.values["taaEnabled"])
	assert.Equal(t, int32(3), u.values["taaSampleLevel"])
}

func TestPostStateWithoutPasses(t *testing.T) {
	st := postStateFor(nil, settings.ToneMappingNone, 1)
	assert.False(t, st.antialias)
	assert.Equal(t, float32(1), st.smaaScale)
	assert.Equal(t, int32(0), st.toneMapping)
}

func TestToneMappingIndex(t *testing.T) {
	cases := map[settings.ToneMapping]int32{
		settings.ToneMappingNone:     0,
		settings.ToneMappingLinear:   1,
		settings.ToneMappingReinhard: 2,
		settings.ToneMappingCineon:   3,
		settings.ToneMappingACES:     4,
		settings.ToneMappingNeutral:  5,
	}
	for curve, want := range cases {
		assert.Equal(t, want, toneMappingIndex(curve), string(curve))
	}
}

func TestProjectFlares(t *testing.T) {
	camera := scene.NewPerspectiveCamera(55, 1, 0.1, 200)
	camera.SetPosition(0, 0, 5)

	flare := scene.NewLensFlare()
	flare.SetPosition(1, 0, 0)
	flare.AddElement(nil, 96, 0, scene.Hex(0xf7b545))
	flare.AddElement(nil, 128, 0.5, scene.Hex(0x45e3c2))

	sprites := projectFlares(&frame{flares: []*scene.LensFlare{flare}}, camera)
	require.Len(t, sprites, 2)
	assert.Greater(t, sprites[0].uv.X(), float32(0.5))
	assert.InDelta(t, 0.5, sprites[1].uv.X(), 1e-5)
	assert.InDelta(t, 0.5, sprites[1].uv.Y(), 1e-5)
	assert.Equal(t, float32(128), sprites[1].size)

	behind := scene.NewLensFlare()
	behind.SetPosition(0, 0, 10)
	behind.AddElement(nil, 96, 0, scene.Hex(0xf7b545))
	assert.Empty(t, projectFlares(&frame{flares: []*scene.LensFlare{behind}}, camera))
}

func TestProjectFlaresCapsElements(t *testing.T) {
	camera := scene.NewPerspectiveCamera(55, 1, 0.1, 200)
	camera.SetPosition(0, 0, 5)
	flare := scene.NewLensFlare()
	for i := 0; i < maxFlareElements+2; i++ {
		flare.AddElement(nil, 64, 0.1, scene.Hex(0xffffff))
	}
	assert.Len(t, projectFlares(&frame{flares: []*scene.LensFlare{flare}}, camera), maxFlareElements)
}

type fakeUploader struct {
	next     uint32
	uploads  int
	freed    []uint32
	sampling int
}

func (f *fakeUploader) Upload(t *scene.Texture) (uint32, int64, error) {
	f.next++
	f.uploads++
	return f.next, int64(t.Width * t.Height * 4), nil
}

func (f *fakeUploader) UpdateSampling(uint32, *scene.Texture) { f.sampling++ }

func (f *fakeUploader) Free(handle uint32) { f.freed = append(f.freed, handle) }

func TestTextureManagerCachesUploads(t *testing.T) {
	up := &fakeUploader{}
	tm := NewTextureManager(up)
	tex := scene.NewTexture("albedo", image.NewRGBA(image.Rect(0, 0, 4, 4)))

	h1, err := tm.Acquire(tex)
	require.NoError(t, err)
	h2, err := tm.Acquire(tex)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, up.uploads)

	stats := tm.GetStats()
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheMisses)
	assert.Equal(t, int64(64), stats.Bytes)

	tex.NeedsUpdate = true
	_, _ = tm.Acquire(tex)
	assert.Equal(t, 1, up.sampling)
	assert.False(t, tex.NeedsUpdate)
}

func TestTextureManagerEvictsOnDispose(t *testing.T) {
	up := &fakeUploader{}
	tm := NewTextureManager(up)
	tex := scene.NewTexture("env", image.NewRGBA(image.Rect(0, 0, 2, 2)))

	h, err := tm.Acquire(tex)
	require.NoError(t, err)
	require.Equal(t, 1, tm.GetStats().ActiveTextures)

	tex.Dispose()
	assert.Equal(t, []uint32{h}, up.freed)
	assert.Equal(t, 0, tm.GetStats().ActiveTextures)

	h, err = tm.Acquire(tex)
	require.NoError(t, err)
	assert.Zero(t, h, "disposed textures are never uploaded again")
}

func TestTextureManagerClear(t *testing.T) {
	up := &fakeUploader{}
	tm := NewTextureManager(up)
	a := scene.NewTexture("a", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	b := scene.NewTexture("b", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	_, _ = tm.Acquire(a)
	_, _ = tm.Acquire(b)

	tm.Clear()
	assert.Len(t, up.freed, 2)
	assert.Equal(t, 0, tm.GetStats().ActiveTextures)

	_, _ = tm.Acquire(a)
	assert.Equal(t, 3, up.uploads, "cleared textures upload again on next use")
}

func TestUnwindRunsInReverse(t *testing.T) {
	var order []int
	var u Unwind
	u.Add(func() { order = append(order, 1) })
	u.Add(func() { order = append(order, 2) })
	u.Unwind()
	assert.Equal(t, []int{2, 1}, order)

	u.Add(func() { order = append(order, 3) })
	u.Discard()
	u.Unwind()
	assert.Equal(t, []int{2, 1}, order)
}

func TestGraphUniformsFollowNodeChain(t *testing.T) {
	g := pipeline.NewGraphPipeline(nil, nil)
	g.Output = &pipeline.Node{
		Kind:   pipeline.NodeFilmGrain,
		Params: map[string]float32{"intensity": 0.25},
		Input: &pipeline.Node{
			Kind:   pipeline.NodeSMAA,
			Params: map[string]float32{"scale": 2},
			Input: &pipeline.Node{
				Kind:   pipeline.NodeAO,
				Params: map[string]float32{"radius": 9},
				Input:  &pipeline.Node{Kind: pipeline.NodeScenePass},
			},
		},
	}

	u := graphUniforms(g, graphFrame{
		size:        pipeline.Size{Width: 320, Height: 200},
		curve:       settings.ToneMappingACES,
		exposure:    1.2,
		near:        0.1,
		far:         200,
		manualGamma: true,
	})
	require.Len(t, u, graphUniformFloats)
	assert.Equal(t, []float32{320, 200, 0, 1.2}, u[0:4])
	assert.Equal(t, []float32{4, 0.1, 200, 3}, u[4:8])
	assert.Equal(t, float32(9), u[8])
	assert.Equal(t, float32(2), u[14])
	assert.Equal(t, float32(0.25), u[16])
	assert.Equal(t, float32(1), u[17])
	assert.Equal(t, []float32{graphStageAO, graphStageSMAA, graphStageFilm, 0}, u[20:24])
}

func TestGraphUniformsWithoutGraph(t *testing.T) {
	u := graphUniforms(nil, graphFrame{size: pipeline.Size{Width: 1, Height: 1}, exposure: 1})
	assert.Equal(t, float32(0), u[7])
	assert.Equal(t, float32(1), u[14])
	assert.Equal(t, float32(0), u[17])
}

func TestGraphUniformsFromAppliedPipeline(t *testing.T) {
	stage := CreateScene()
	s := settings.DefaultRenderingSettings()
	s.RendererMode = settings.RendererWebGPU
	s.AntiAliasing = settings.AntiAliasingTAA
	s.AmbientOcclusion = true
	s.DepthOfField = true
	s.FilmGrain = true

	g := pipeline.NewGraphPipeline(stage.Scene, stage.Camera)
	pipeline.ApplyPostProcessing(g, &s, settings.RendererWebGPU, pipeline.Size{Width: 64, Height: 64}, stage.Scene)

	u := graphUniforms(g, graphFrame{size: g.Size, exposure: 1})
	assert.Equal(t, float32(4), u[7])
	assert.Equal(t, []float32{graphStageAO, graphStageDOF, graphStageTAA, graphStageFilm}, u[20:24])
	assert.Equal(t, float32(s.TAASamples-1), u[15])
	assert.True(t, needsGBuffer(g.ActiveTargets))
}

func TestNeedsGBuffer(t *testing.T) {
	assert.False(t, needsGBuffer(nil))
	assert.False(t, needsGBuffer([]pipeline.Target{pipeline.TargetColor}))
	assert.True(t, needsGBuffer([]pipeline.Target{pipeline.TargetColor, pipeline.TargetDepth}))
}

func TestReflectionMatrixMirrorsAboutPlane(t *testing.T) {
	m := reflectionMatrix(1)
	p := m.Mul4x1(mgl32.Vec4{2, 3, -1, 1})
	assert.InDelta(t, 2, p.X(), 1e-5)
	assert.InDelta(t, -1, p.Y(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5)

	onPlane := m.Mul4x1(mgl32.Vec4{5, 1, 5, 1})
	assert.InDelta(t, 1, onPlane.Y(), 1e-5)
}

func TestReflectionSources(t *testing.T) {
	proxy := scene.NewMesh("proxy", scene.NewPlaneGeometry(1, 1, 1), nil)
	proxy.Reflector = scene.NewRenderTarget(4, 4)
	box := scene.NewMesh("box", scene.NewBoxGeometry(1, 1, 1), nil)
	excluded := scene.NewMesh("excluded", scene.NewBoxGeometry(1, 1, 1), nil)
	items := []drawItem{{mesh: proxy}, {mesh: box}, {mesh: excluded}}

	all := reflectionSources(items, proxy, nil)
	require.Len(t, all, 2)
	assert.Same(t, box, all[0].mesh)

	selected := reflectionSources(items, proxy, []*scene.Mesh{box})
	require.Len(t, selected, 1)
	assert.Same(t, box, selected[0].mesh)
}

func TestAnisotropyLevel(t *testing.T) {
	_, ok := anisotropyLevel(1, 8)
	assert.False(t, ok, "limit of 1 means the extension is missing")
	_, ok = anisotropyLevel(0, 8)
	assert.False(t, ok)

	level, ok := anisotropyLevel(16, 8)
	require.True(t, ok)
	assert.Equal(t, float32(8), level)

	level, _ = anisotropyLevel(4, 8)
	assert.Equal(t, float32(4), level)
	level, _ = anisotropyLevel(16, 0)
	assert.Equal(t, float32(1), level)
}
