package scene

import "github.com/go-gl/mathgl/mgl32"

// LightKind selects the light model.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightPoint
)

// ShadowMapType mirrors the renderer's shadow filtering modes.
type ShadowMapType int

const (
	ShadowMapBasic ShadowMapType = iota
	ShadowMapPCF
	ShadowMapPCFSoft
	ShadowMapVSM
)

func (t ShadowMapType) String() string {
	switch t {
	case ShadowMapPCF:
		return "pcf"
	case ShadowMapPCFSoft:
		return "pcfSoft"
	case ShadowMapVSM:
		return "vsm"
	default:
		return "basic"
	}
}

// Light is an ambient, directional or point light.
type Light struct {
	Object3D
	LightKind LightKind
	Color     mgl32.Vec3
	Intensity float32
	Distance  float32 // point lights only, 0 means infinite
	Target    mgl32.Vec3

	CastShadow    bool
	ShadowMapSize int
	ShadowBias    float32
	ShadowRadius  float32
}

func NewAmbientLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{
		Object3D:  newObject("AmbientLight", KindLight),
		LightKind: LightAmbient,
		Color:     color,
		Intensity: intensity,
	}
}

func NewDirectionalLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{
		Object3D:      newObject("DirectionalLight", KindLight),
		LightKind:     LightDirectional,
		Color:         color,
		Intensity:     intensity,
		ShadowMapSize: 512,
		ShadowRadius:  1,
	}
}

func NewPointLight(color mgl32.Vec3, intensity, distance float32) *Light {
	return &Light{
		Object3D:      newObject("PointLight", KindLight),
		LightKind:     LightPoint,
		Color:         color,
		Intensity:     intensity,
		Distance:      distance,
		ShadowMapSize: 512,
		ShadowRadius:  1,
	}
}

func (l *Light) Object() *Object3D { return &l.Object3D }

func (l *Light) Accept(v Visitor) { v.VisitLight(l) }

// Hex converts a 0xRRGGBB color to a linear vector.
func Hex(c uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((c>>16)&0xff) / 255,
		float32((c>>8)&0xff) / 255,
		float32(c&0xff) / 255,
	}
}
