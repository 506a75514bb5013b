package pipeline

import "GopherTestbed/internal/settings"

// ToneMapper is the renderer side of tone mapping.
type ToneMapper interface {
	SetToneMapping(curve settings.ToneMapping, exposure float32)
}

// ApplyToneMapping pushes the scene's curve and exposure to the renderer and
// the bundle's output stage.
func ApplyToneMapping(target ToneMapper, bundle Bundle, s *settings.SceneSettings) {
	if s == nil {
		return
	}
	if target != nil {
		target.SetToneMapping(s.ToneMapping, s.Exposure)
	}
	switch b := bundle.(type) {
	case *DiscretePasses:
		b.Output.ToneMapping = s.ToneMapping
		b.Output.Exposure = s.Exposure
	case *GraphPipeline:
		b.ToneMapping = s.ToneMapping
		b.Exposure = s.Exposure
	}
}
