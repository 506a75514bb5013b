package settings

// RendererMode selects the graphics backend.
type RendererMode string

const (
	// RendererOpenGL is the fallback raster backend.
	RendererOpenGL RendererMode = "opengl"
	// RendererWebGPU is the advanced compute-capable backend.
	RendererWebGPU RendererMode = "webgpu"
)

// Label returns the display name of the backend.
func (m RendererMode) Label() string {
	switch m {
	case RendererWebGPU:
		return "WebGPU"
	default:
		return "OpenGL"
	}
}

// Valid reports whether m names a known backend.
func (m RendererMode) Valid() bool {
	return m == RendererOpenGL || m == RendererWebGPU
}

type AntiAliasingMode string

const (
	AntiAliasingNone AntiAliasingMode = "none"
	AntiAliasingMSAA AntiAliasingMode = "msaa"
	AntiAliasingFXAA AntiAliasingMode = "fxaa"
	AntiAliasingSMAA AntiAliasingMode = "smaa"
	AntiAliasingTAA  AntiAliasingMode = "taa"
)

// AntiAliasingModes lists every mode in display order.
var AntiAliasingModes = []AntiAliasingMode{
	AntiAliasingNone,
	AntiAliasingMSAA,
	AntiAliasingFXAA,
	AntiAliasingSMAA,
	AntiAliasingTAA,
}

// Label returns the short display name of the mode.
func (m AntiAliasingMode) Label() string {
	switch m {
	case AntiAliasingMSAA:
		return "MSAA"
	case AntiAliasingFXAA:
		return "FXAA"
	case AntiAliasingSMAA:
		return "SMAA"
	case AntiAliasingTAA:
		return "TAA"
	default:
		return "None"
	}
}

type QualityLevel string

const (
	QualityLow    QualityLevel = "low"
	QualityMedium QualityLevel = "medium"
	QualityHigh   QualityLevel = "high"
)

type TextureFiltering string

const (
	FilteringLinear      TextureFiltering = "linear"
	FilteringTrilinear   TextureFiltering = "trilinear"
	FilteringAnisotropic TextureFiltering = "anisotropic"
)

type ShadowType string

const (
	ShadowBasic   ShadowType = "basic"
	ShadowPCF     ShadowType = "pcf"
	ShadowPCFSoft ShadowType = "pcfSoft"
	ShadowVSM     ShadowType = "vsm"
)

// Label returns the display name of the shadow type.
func (s ShadowType) Label() string {
	switch s {
	case ShadowBasic:
		return "Basic"
	case ShadowPCF:
		return "PCF"
	case ShadowPCFSoft:
		return "PCF Soft"
	case ShadowVSM:
		return "VSM"
	default:
		return string(s)
	}
}

type ToneMapping string

const (
	ToneMappingNone     ToneMapping = "none"
	ToneMappingLinear   ToneMapping = "linear"
	ToneMappingReinhard ToneMapping = "reinhard"
	ToneMappingCineon   ToneMapping = "cineon"
	ToneMappingACES     ToneMapping = "aces"
	ToneMappingNeutral  ToneMapping = "neutral"
)

// RenderingSettings is the user-editable rendering configuration.
// Every field is always populated; decoding merges over DefaultRenderingSettings.
type RenderingSettings struct {
	// Backend
	RendererMode RendererMode `json:"rendererMode"`

	// Anti-Aliasing
	AntiAliasing AntiAliasingMode `json:"antialiasing"`
	MSAASamples  int              `json:"msaaSamples"`
	SMAAQuality  QualityLevel     `json:"smaaQuality"`
	TAASamples   int              `json:"taaSamples"`

	// Ambient Occlusion
	AmbientOcclusion bool         `json:"aoEnabled"`
	AORadius         float32      `json:"aoRadius"`
	AOQuality        QualityLevel `json:"aoQuality"`

	// Reflections
	ScreenSpaceReflections bool `json:"ssrEnabled"`

	// Placeholders for future lighting paths
	GlobalIllumination bool `json:"globalIllumination"`
	RayTracing         bool `json:"rayTracing"`
	PathTracing        bool `json:"pathTracing"`
	VolumetricLighting bool `json:"volumetricLighting"`

	// Texture Filtering
	Anisotropy       int              `json:"anisotropy"`
	TextureFiltering TextureFiltering `json:"textureFiltering"`

	// Depth of Field
	DepthOfField bool    `json:"depthOfField"`
	DOFFocus     float32 `json:"dofFocus"`
	DOFAperture  float32 `json:"dofAperture"`
	DOFMaxBlur   float32 `json:"dofMaxBlur"`

	// Shadows
	ShadowType ShadowType `json:"shadowType"`

	// Lens and Film
	ChromaticAberration bool `json:"chromaticAberration"`
	Vignette            bool `json:"vignette"`
	LensFlares          bool `json:"lensFlares"`
	FilmGrain           bool `json:"filmGrain"`
}

// SceneSettings holds per-scene presentation knobs.
type SceneSettings struct {
	EnvironmentIntensity float32     `json:"environmentIntensity"`
	Exposure             float32     `json:"exposure"`
	ToneMapping          ToneMapping `json:"toneMapping"`
	AutoRotate           bool        `json:"autoRotate"`
	LODBias              float32     `json:"lodBias"`
	BVHEnabled           bool        `json:"bvhEnabled"`
	EnvironmentMap       bool        `json:"environmentMapEnabled"`
}

// DefaultRenderingSettings returns the baseline configuration every decode merges over.
func DefaultRenderingSettings() RenderingSettings {
	return RenderingSettings{
		RendererMode: RendererOpenGL,

		AntiAliasing: AntiAliasingMSAA,
		MSAASamples:  4,
		SMAAQuality:  QualityMedium,
		TAASamples:   4,

		AmbientOcclusion: true,
		AORadius:         12,
		AOQuality:        QualityMedium,

		ScreenSpaceReflections: false,

		GlobalIllumination: false,
		RayTracing:         false,
		PathTracing:        false,
		VolumetricLighting: false,

		Anisotropy:       8,
		TextureFiltering: FilteringTrilinear,

		DepthOfField: false,
		DOFFocus:     5,
		DOFAperture:  0.018,
		DOFMaxBlur:   0.01,

		ShadowType: ShadowPCFSoft,

		ChromaticAberration: false,
		Vignette:            true,
		LensFlares:          true,
		FilmGrain:           false,
	}
}

// DefaultSceneSettings returns the baseline scene configuration.
func DefaultSceneSettings() SceneSettings {
	return SceneSettings{
		EnvironmentIntensity: 1,
		Exposure:             1,
		ToneMapping:          ToneMappingACES,
		AutoRotate:           true,
		LODBias:              0,
		BVHEnabled:           false,
		EnvironmentMap:       true,
	}
}

// Clone returns a heap copy of s. Settings are treated as immutable once
// published, so every edit goes through a fresh copy.
func (s *RenderingSettings) Clone() *RenderingSettings {
	c := *s
	return &c
}

// Clone returns a heap copy of s.
func (s *SceneSettings) Clone() *SceneSettings {
	c := *s
	return &c
}
