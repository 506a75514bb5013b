package renderer

import (
	"fmt"

	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/mathgl/mgl32"
)

const maxFlareElements = 4

type flareSprite struct {
	uv    mgl32.Vec2
	color mgl32.Vec3
	size  float32
}

// postState is the uniform block of the fullscreen resolve, derived from the
// discrete pass chain.
type postState struct {
	ao, reflections, antialias, smaa, taa bool
	aoRadius, smaaScale                   float32
	taaSampleLevel                        int32

	dof                           bool
	dofFocus, dofAperture, dofMax float32

	film          bool
	filmIntensity float32

	vignette                         bool
	vignetteOffset, vignetteDarkness float32

	chromatic       bool
	chromaticAmount float32

	toneMapping int32
	exposure    float32

	flares []flareSprite
}

// uniformSetter is the part of UniformCache the resolve writes through.
type uniformSetter interface {
	SetBool(name string, v bool)
	SetFloat(name string, v float32)
	SetInt(name string, v int32)
	SetVec2(name string, x, y float32)
	SetVec3(name string, v mgl32.Vec3)
}

func postStateFor(p *pipeline.DiscretePasses, curve settings.ToneMapping, exposure float32) postState {
	st := postState{toneMapping: toneMappingIndex(curve), exposure: exposure, smaaScale: 1}
	if p == nil {
		return st
	}
	st.ao = p.AO.Enabled
	st.aoRadius = p.AO.KernelRadius
	st.reflections = p.Reflection.Enabled
	st.antialias = p.FXAA.Enabled || p.SMAA.Enabled || p.TAA.Enabled
	st.smaa = p.SMAA.Enabled
	st.taa = p.TAA.Enabled
	st.taaSampleLevel = int32(p.TAA.SampleLevel)
	if p.SMAA.Enabled && p.Size.Width > 0 {
		st.smaaScale = float32(p.SMAA.Width) / float32(p.Size.Width)
	}
	st.dof = p.DOF.Enabled
	st.dofFocus, st.dofAperture, st.dofMax = p.DOF.Focus, p.DOF.Aperture, p.DOF.MaxBlur
	st.film = p.Film.Enabled
	st.filmIntensity = p.Film.Intensity
	st.vignette = p.Vignette.Enabled
	st.vignetteOffset, st.vignetteDarkness = p.Vignette.Offset, p.Vignette.Darkness
	st.chromatic = p.Chromatic.Enabled
	st.chromaticAmount = p.Chromatic.Amount
	return st
}

func (st postState) apply(u uniformSetter, size pipeline.Size, seconds float32) {
	u.SetVec2("resolution", float32(size.Width), float32(size.Height))
	u.SetFloat("time", seconds)
	u.SetBool("aoEnabled", st.ao)
	u.SetFloat("aoRadius", st.aoRadius)
	u.SetBool("reflectionsEnabled", st.reflections)
	u.SetBool("fxaaEnabled", st.antialias && !st.smaa && !st.taa)
	u.SetBool("smaaEnabled", st.smaa)
	u.SetFloat("smaaScale", st.smaaScale)
	u.SetBool("taaEnabled", st.taa)
	u.SetInt("taaSampleLevel", st.taaSampleLevel)
	u.SetBool("dofEnabled", st.dof)
	u.SetFloat("dofFocus", st.dofFocus)
	u.SetFloat("dofAperture", st.dofAperture)
	u.SetFloat("dofMaxBlur", st.dofMax)
	u.SetBool("filmEnabled", st.film)
	u.SetFloat("filmIntensity", st.filmIntensity)
	u.SetBool("vignetteEnabled", st.vignette)
	u.SetFloat("vignetteOffset", st.vignetteOffset)
	u.SetFloat("vignetteDarkness", st.vignetteDarkness)
	u.SetBool("chromaticEnabled", st.chromatic)
	u.SetFloat("chromaticAmount", st.chromaticAmount)
	u.SetInt("toneMapping", st.toneMapping)
	u.SetFloat("exposure", st.exposure)

	u.SetInt("flareCount", int32(len(st.flares)))
	for i, f := range st.flares {
		u.SetVec2(fmt.Sprintf("flarePos[%d]", i), f.uv.X(), f.uv.Y())
		u.SetVec3(fmt.Sprintf("flareColor[%d]", i), f.color)
		u.SetFloat(fmt.Sprintf("flareSize[%d]", i), f.size)
	}
}

func toneMappingIndex(curve settings.ToneMapping) int32 {
	switch curve {
	case settings.ToneMappingLinear:
		return 1
	case settings.ToneMappingReinhard:
		return 2
	case settings.ToneMappingCineon:
		return 3
	case settings.ToneMappingACES:
		return 4
	case settings.ToneMappingNeutral:
		return 5
	default:
		return 0
	}
}

// projectFlares places each flare element on the line from the light's
// screen position through the screen center.
func projectFlares(f *frame, camera *scene.PerspectiveCamera) []flareSprite {
	if camera == nil {
		return nil
	}
	vp := camera.ViewProjection()
	var sprites []flareSprite
	for _, flare := range f.flares {
		clip := vp.Mul4x1(flare.WorldMatrix().Col(3))
		if clip.W() <= 0 {
			continue
		}
		ndc := mgl32.Vec2{clip.X() / clip.W(), clip.Y() / clip.W()}
		if ndc.X() < -1 || ndc.X() > 1 || ndc.Y() < -1 || ndc.Y() > 1 {
			continue
		}
		for _, el := range flare.Elements {
			if len(sprites) == maxFlareElements {
				return sprites
			}
			p := ndc.Mul(1 - 2*el.Distance)
			sprites = append(sprites, flareSprite{
				uv:    mgl32.Vec2{p.X()*0.5 + 0.5, p.Y()*0.5 + 0.5},
				color: el.Color,
				size:  el.Size,
			})
		}
	}
	return sprites
}
