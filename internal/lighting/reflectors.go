package lighting

import (
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"

	"go.uber.org/zap"
)

// SyncReflectors gives every reflective floor proxy a render target sized to
// the viewport while reflections are on, and frees the targets when they are
// off. It returns the number of proxies holding a target.
func SyncReflectors(sc *scene.Scene, enabled bool, viewport pipeline.Size) int {
	if sc == nil {
		return 0
	}
	active := 0
	scene.Walk(sc.Root(), scene.MeshVisitor(func(m *scene.Mesh) {
		if !m.HasTag(scene.TagReflectiveProxy) {
			return
		}
		if !enabled {
			if m.Reflector != nil {
				m.Reflector.Dispose()
				m.Reflector = nil
			}
			return
		}
		w, h := max(viewport.Width, 1), max(viewport.Height, 1)
		if m.Reflector == nil {
			m.Reflector = scene.NewRenderTarget(w, h)
			logger.Log.Debug("Reflector target created", zap.String("mesh", m.Name), zap.Int("width", w), zap.Int("height", h))
		} else if !viewport.Empty() {
			m.Reflector.SetSize(w, h)
		}
		active++
	}))
	return active
}
