// Package pipeline holds the post-processing representations of both
// backends and pushes validated settings into them.
package pipeline

import (
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
)

// Size is a viewport size in pixels.
type Size struct {
	Width, Height int
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Bundle is the live post-processing pipeline of one backend build. It is
// either *DiscretePasses or *GraphPipeline.
type Bundle interface {
	Backend() settings.RendererMode
	SetSize(size Size)
	Dispose()
	bundle()
}

// New builds the pipeline representation for backend.
func New(backend settings.RendererMode, sc *scene.Scene, camera *scene.PerspectiveCamera, s *settings.RenderingSettings) Bundle {
	if backend == settings.RendererWebGPU {
		return NewGraphPipeline(sc, camera)
	}
	return NewDiscretePasses(sc, camera, s)
}
