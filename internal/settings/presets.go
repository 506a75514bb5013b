package settings

// Preset is a named, persisted pair of rendering and scene settings.
type Preset struct {
	Name      string            `json:"name"`
	Rendering RenderingSettings `json:"rendering"`
	Scene     SceneSettings     `json:"scene"`
}

// LowPreset returns settings optimized for performance.
func LowPreset() Preset {
	rendering := DefaultRenderingSettings()
	rendering.AntiAliasing = AntiAliasingFXAA
	rendering.ShadowType = ShadowBasic
	rendering.AmbientOcclusion = false
	rendering.TextureFiltering = FilteringLinear
	rendering.DepthOfField = false
	rendering.FilmGrain = false

	scene := DefaultSceneSettings()
	scene.EnvironmentIntensity = 0.7
	scene.Exposure = 0.9

	return Preset{Name: "Low", Rendering: rendering, Scene: scene}
}

// MediumPreset returns balanced settings.
func MediumPreset() Preset {
	rendering := DefaultRenderingSettings()
	rendering.AntiAliasing = AntiAliasingSMAA
	rendering.ShadowType = ShadowPCF
	rendering.AmbientOcclusion = true
	rendering.AOQuality = QualityMedium
	rendering.TextureFiltering = FilteringTrilinear
	rendering.FilmGrain = false

	return Preset{Name: "Medium", Rendering: rendering, Scene: DefaultSceneSettings()}
}

// HighPreset returns settings optimized for visual quality.
func HighPreset() Preset {
	rendering := DefaultRenderingSettings()
	rendering.AntiAliasing = AntiAliasingTAA
	rendering.ShadowType = ShadowPCFSoft
	rendering.AmbientOcclusion = true
	rendering.AOQuality = QualityHigh
	rendering.TextureFiltering = FilteringAnisotropic
	rendering.DepthOfField = true
	rendering.FilmGrain = true

	scene := DefaultSceneSettings()
	scene.EnvironmentIntensity = 1.2
	scene.Exposure = 1.1

	return Preset{Name: "High", Rendering: rendering, Scene: scene}
}

// BuiltinPresets returns the presets seeded into an empty store.
func BuiltinPresets() []Preset {
	return []Preset{LowPreset(), MediumPreset(), HighPreset()}
}
