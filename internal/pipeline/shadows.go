package pipeline

import (
	"fmt"

	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
)

// ShadowTarget is the renderer side of shadow configuration.
type ShadowTarget interface {
	SetShadowMap(enabled bool, kind scene.ShadowMapType)
}

// ShadowResult reports what was actually applied.
type ShadowResult struct {
	Applied         settings.ShadowType
	FallbackMessage string
}

func shadowMapType(t settings.ShadowType) scene.ShadowMapType {
	switch t {
	case settings.ShadowBasic:
		return scene.ShadowMapBasic
	case settings.ShadowPCF:
		return scene.ShadowMapPCF
	case settings.ShadowVSM:
		return scene.ShadowMapVSM
	default:
		return scene.ShadowMapPCFSoft
	}
}

// ApplyShadowSettings selects the shadow filter for the backend and
// configures every shadow casting light in sc.
func ApplyShadowSettings(target ShadowTarget, s *settings.RenderingSettings, backend settings.RendererMode, sc *scene.Scene) ShadowResult {
	res := ShadowResult{Applied: s.ShadowType}
	if backend == settings.RendererWebGPU && s.ShadowType == settings.ShadowVSM {
		res.Applied = settings.ShadowPCF
		res.FallbackMessage = fmt.Sprintf("Shadow type %s is not supported by %s; using %s.",
			s.ShadowType.Label(), backend.Label(), res.Applied.Label())
	}
	kind := shadowMapType(res.Applied)
	if target != nil {
		target.SetShadowMap(true, kind)
	}
	if sc == nil {
		return res
	}
	scene.Walk(sc.Root(), scene.LightVisitor(func(l *scene.Light) {
		if !l.CastShadow {
			return
		}
		switch kind {
		case scene.ShadowMapPCFSoft:
			l.ShadowRadius = 4
			l.ShadowBias = -0.0005
		case scene.ShadowMapVSM:
			l.ShadowRadius = 8
			l.ShadowBias = -0.0001
		default:
			l.ShadowRadius = 1
			l.ShadowBias = -0.0005
		}
	}))
	return res
}
