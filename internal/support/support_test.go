package support

import (
	"testing"

	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *settings.RenderingSettings {
	s := settings.DefaultRenderingSettings()
	return &s
}

func TestGetAvailabilityMatrix(t *testing.T) {
	s := defaults()
	gl := GetAvailability(settings.RendererOpenGL, s)
	wg := GetAvailability(settings.RendererWebGPU, s)

	for _, k := range []ControlKey{AmbientOcclusion, ScreenSpaceReflections, DepthOfField, FilmGrain} {
		assert.True(t, gl.Available(k), "opengl %s", k)
		assert.True(t, wg.Available(k), "webgpu %s", k)
	}
	for _, k := range []ControlKey{Vignette, ChromaticAberration, LensFlares, PathTracing} {
		assert.True(t, gl.Available(k), "opengl %s", k)
		assert.False(t, wg.Available(k), "webgpu %s", k)
	}
	for _, k := range []ControlKey{RayTracing, GlobalIllumination, VolumetricLighting} {
		assert.False(t, gl.Available(k))
		assert.Equal(t, "Not implemented yet", gl.Hint(k))
	}
}

func TestGetAvailabilityDeterministic(t *testing.T) {
	s := defaults()
	s.PathTracing = true
	assert.Equal(t, GetAvailability(settings.RendererWebGPU, s), GetAvailability(settings.RendererWebGPU, s))
}

func TestReflectionsConflictWithPathTracing(t *testing.T) {
	s := defaults()
	s.PathTracing = true
	s.ScreenSpaceReflections = true

	support := GetAvailability(settings.RendererOpenGL, s)
	assert.False(t, support.Available(ScreenSpaceReflections))
	assert.Equal(t, "Path Tracing is enabled", support.Hint(ScreenSpaceReflections))

	s.PathTracing = false
	support = GetAvailability(settings.RendererOpenGL, s)
	assert.True(t, support.Available(ScreenSpaceReflections))
	assert.Empty(t, support.Hint(ScreenSpaceReflections))
}

func TestReflectionsConflictWithRayTracing(t *testing.T) {
	s := defaults()
	s.RayTracing = true
	support := GetAvailability(settings.RendererOpenGL, s)
	assert.False(t, support.Available(ScreenSpaceReflections))
	assert.Equal(t, "Ray Tracing is enabled", support.Hint(ScreenSpaceReflections))
}

func TestWebGPUMSAARestrictedByEffects(t *testing.T) {
	s := defaults()
	s.AmbientOcclusion = true
	assert.False(t, GetAvailability(settings.RendererWebGPU, s).AntiAliasingAvailable(settings.AntiAliasingMSAA))
	assert.True(t, GetAvailability(settings.RendererOpenGL, s).AntiAliasingAvailable(settings.AntiAliasingMSAA))

	s.AmbientOcclusion = false
	s.DepthOfField = false
	s.ScreenSpaceReflections = false
	assert.True(t, GetAvailability(settings.RendererWebGPU, s).AntiAliasingAvailable(settings.AntiAliasingMSAA))
}

func TestWebGPUMSAAIgnoresEffectsTheSceneClears(t *testing.T) {
	s := defaults()
	s.AmbientOcclusion = false
	s.ScreenSpaceReflections = true
	s.AntiAliasing = settings.AntiAliasingMSAA

	base := GetAvailability(settings.RendererWebGPU, s)
	require.False(t, base.AntiAliasingAvailable(settings.AntiAliasingMSAA))

	merged := MergeControlConstraints(base, SceneControlConstraints(scene.New()))
	assert.False(t, merged.Available(ScreenSpaceReflections))
	assert.True(t, merged.AntiAliasingAvailable(settings.AntiAliasingMSAA))
	assert.False(t, base.AntiAliasingAvailable(settings.AntiAliasingMSAA), "base is untouched")

	out := NormalizeSettingsForSupport(s, merged)
	assert.False(t, out.ScreenSpaceReflections)
	assert.Equal(t, settings.AntiAliasingMSAA, out.AntiAliasing)
}

func TestWebGPUMSAAIgnoresTracedReflections(t *testing.T) {
	s := defaults()
	s.AmbientOcclusion = false
	s.ScreenSpaceReflections = true
	s.PathTracing = true
	assert.True(t, GetAvailability(settings.RendererWebGPU, s).AntiAliasingAvailable(settings.AntiAliasingMSAA))
}

func TestMergeControlConstraints(t *testing.T) {
	s := defaults()
	s.PathTracing = true
	base := GetAvailability(settings.RendererOpenGL, s)

	merged := MergeControlConstraints(base, ControlConstraints{
		ScreenSpaceReflections: {Supported: false, Hint: hintNoReflectiveFloor},
		AmbientOcclusion:       {Supported: true},
		RayTracing:             {Supported: true},
	})

	assert.False(t, merged.Available(ScreenSpaceReflections))
	assert.Equal(t, hintNoReflectiveFloor, merged.Hint(ScreenSpaceReflections), "scene hint takes precedence")
	assert.True(t, merged.Available(AmbientOcclusion))
	assert.False(t, merged.Available(RayTracing), "constraints never widen support")
	assert.Equal(t, "Not implemented yet", merged.Hint(RayTracing))

	// base is untouched
	assert.Equal(t, "Path Tracing is enabled", base.Hint(ScreenSpaceReflections))
}

func TestNormalizeReturnsSamePointerWhenUnchanged(t *testing.T) {
	s := defaults()
	support := GetAvailability(settings.RendererOpenGL, s)
	assert.Same(t, s, NormalizeSettingsForSupport(s, support))
}

func TestNormalizeClearsUnavailable(t *testing.T) {
	s := defaults()
	s.ScreenSpaceReflections = true
	s.PathTracing = true
	s.Vignette = true
	s.AntiAliasing = settings.AntiAliasingMSAA

	support := GetAvailability(settings.RendererWebGPU, s)
	out := NormalizeSettingsForSupport(s, support)

	require.NotSame(t, s, out)
	assert.False(t, out.ScreenSpaceReflections)
	assert.False(t, out.PathTracing)
	assert.False(t, out.Vignette)
	assert.Equal(t, settings.AntiAliasingFXAA, out.AntiAliasing)
	assert.True(t, s.ScreenSpaceReflections, "input is not mutated")
}

func TestNormalizationConverges(t *testing.T) {
	for _, backend := range []settings.RendererMode{settings.RendererOpenGL, settings.RendererWebGPU} {
		for mask := 0; mask < 1<<len(Controls); mask += 37 {
			s := defaults()
			for i, k := range Controls {
				*k.field(s) = mask&(1<<i) != 0
			}
			constraints := ControlConstraints{LensFlares: {Supported: false, Hint: hintNoPrimaryLight}}

			once := NormalizeSettingsForSupport(s, MergeControlConstraints(GetAvailability(backend, s), constraints))
			twice := NormalizeSettingsForSupport(once, MergeControlConstraints(GetAvailability(backend, once), constraints))
			assert.Same(t, once, twice, "backend %s mask %b", backend, mask)
		}
	}
}

func TestUnsupportedLabel(t *testing.T) {
	s := defaults()
	_, ok := UnsupportedLabel(s, settings.RendererOpenGL, "OpenGL")
	assert.False(t, ok)

	s.RayTracing = true
	s.Vignette = true
	label, ok := UnsupportedLabel(s, settings.RendererWebGPU, "WebGPU")
	require.True(t, ok)
	assert.Equal(t, "Unsupported in WebGPU: MSAA, Vignette, Lens Flares, Ray Tracing", label)
}

func TestSceneControlConstraints(t *testing.T) {
	empty := scene.New()
	c := SceneControlConstraints(empty)
	assert.Equal(t, hintNoReflectiveFloor, c[ScreenSpaceReflections].Hint)
	assert.Equal(t, hintNoPrimaryLight, c[LensFlares].Hint)

	full := scene.New()
	floor := scene.NewMesh("floor", scene.NewGeometry(nil, nil), nil)
	floor.Tag(scene.TagReflectiveFloor)
	full.Add(floor, scene.NewDirectionalLight(scene.Hex(0xffffff), 1))
	assert.Empty(t, SceneControlConstraints(full))
}

func TestResolveRendererMode(t *testing.T) {
	none := capabilities.Fallback()
	assert.Equal(t, settings.RendererOpenGL, ResolveRendererMode(settings.RendererWebGPU, none))
	assert.Equal(t, "OpenGL", ResolveRendererMode(settings.RendererWebGPU, none).Label())

	with := none
	with.AdvancedBackendAvailable = true
	assert.Equal(t, settings.RendererWebGPU, ResolveRendererMode(settings.RendererWebGPU, with))
	assert.Equal(t, settings.RendererOpenGL, ResolveRendererMode(settings.RendererOpenGL, with))
}
