// Package renderer builds and drives the two rendering backends: OpenGL 4.1
// core as the fallback raster path and WebGPU as the advanced path.
package renderer

import (
	"errors"
	"fmt"

	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/support"

	"go.uber.org/zap"
)

// ErrBackendUnavailable is returned when no opener exists for a backend or
// the device could not be created.
var ErrBackendUnavailable = errors.New("renderer backend unavailable")

// Info is the per-frame accounting a renderer reports after Render.
type Info struct {
	DrawCalls int
	Triangles int
	MemoryMB  float64
}

// Renderer is one live backend instance.
type Renderer interface {
	Backend() settings.RendererMode
	Label() string
	SetSize(size pipeline.Size)
	SetPipeline(bundle pipeline.Bundle)
	SetToneMapping(curve settings.ToneMapping, exposure float32)
	SetShadowMap(enabled bool, kind scene.ShadowMapType)
	Render(sc *scene.Scene, camera *scene.PerspectiveCamera) error
	Info() Info
	// TimerQueries returns nil when the backend has no GPU timer.
	TimerQueries() framestats.QueryAPI
	Dispose()
}

// Options describes one renderer build.
type Options struct {
	Mode     settings.RendererMode
	Settings *settings.RenderingSettings
	Caps     capabilities.Summary
	Size     pipeline.Size
}

// Opener creates a renderer for an already resolved backend.
type Opener func(opts Options) (Renderer, error)

// Factory resolves the requested backend and opens it.
type Factory struct {
	OpenGL Opener
	WebGPU Opener
}

// Result is the outcome of Factory.Create.
type Result struct {
	Renderer  Renderer
	Label     string
	UsingMSAA bool
	Backend   settings.RendererMode
}

// Create resolves opts.Mode against the capabilities and opens that backend.
// Open failures are returned wrapped; retrying on OpenGL is the caller's call.
func (f Factory) Create(opts Options) (Result, error) {
	mode := support.ResolveRendererMode(opts.Mode, opts.Caps)
	if mode != opts.Mode {
		logger.Log.Info("Requested renderer unavailable, using fallback",
			zap.String("requested", string(opts.Mode)),
			zap.String("resolved", string(mode)))
	}
	opts.Mode = mode

	open := f.OpenGL
	if mode == settings.RendererWebGPU {
		open = f.WebGPU
	}
	if open == nil {
		return Result{}, fmt.Errorf("%s: %w", mode.Label(), ErrBackendUnavailable)
	}

	r, err := open(opts)
	if err != nil {
		return Result{}, fmt.Errorf("open %s renderer: %w", mode.Label(), err)
	}
	if !opts.Size.Empty() {
		r.SetSize(opts.Size)
	}

	logger.Log.Info("Renderer created",
		zap.String("backend", string(mode)),
		zap.String("label", r.Label()))

	return Result{
		Renderer:  r,
		Label:     r.Label(),
		UsingMSAA: UsesMSAA(mode, opts.Settings),
		Backend:   mode,
	}, nil
}

// UsesMSAA reports whether a renderer built for mode with s renders into a
// multisampled default framebuffer. Only OpenGL does; toggling it requires a
// rebuild.
func UsesMSAA(mode settings.RendererMode, s *settings.RenderingSettings) bool {
	return mode == settings.RendererOpenGL && s != nil && s.AntiAliasing == settings.AntiAliasingMSAA
}

// CreateComposer builds the post-processing bundle for a renderer's backend
// and hands it to the renderer.
func CreateComposer(r Renderer, sc *scene.Scene, camera *scene.PerspectiveCamera, s *settings.RenderingSettings) pipeline.Bundle {
	if r == nil || sc == nil || camera == nil {
		return nil
	}
	bundle := pipeline.New(r.Backend(), sc, camera, s)
	r.SetPipeline(bundle)
	return bundle
}
