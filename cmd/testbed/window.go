package main

import (
	"fmt"

	"GopherTestbed/internal/config"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/settings"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// windowHost owns the single host window. A backend or sample count
// change recreates it at the same position and size.
type windowHost struct {
	cfg      config.WindowConfig
	window   *glfw.Window
	mode     settings.RendererMode
	samples  int
	onCreate func(*glfw.Window)
}

func newWindowHost(cfg config.WindowConfig) *windowHost {
	return &windowHost{cfg: cfg}
}

// Acquire returns a window configured for mode and samples.
func (h *windowHost) Acquire(mode settings.RendererMode, samples int) (*glfw.Window, error) {
	if h.window != nil && h.mode == mode && h.samples == samples {
		return h.window, nil
	}

	width, height := h.cfg.Width, h.cfg.Height
	x, y := -1, -1
	if h.window != nil {
		width, height = h.window.GetSize()
		x, y = h.window.GetPos()
		h.window.Destroy()
		h.window = nil
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if mode == settings.RendererWebGPU {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	} else {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.DepthBits, 24)
		glfw.WindowHint(glfw.Samples, samples)
	}

	w, err := glfw.CreateWindow(width, height, h.cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s window: %w", mode.Label(), err)
	}
	if x >= 0 && y >= 0 {
		w.SetPos(x, y)
	}
	if mode != settings.RendererWebGPU {
		w.MakeContextCurrent()
		interval := 0
		if h.cfg.VSync {
			interval = 1
		}
		glfw.SwapInterval(interval)
	}

	h.window, h.mode, h.samples = w, mode, samples
	if h.onCreate != nil {
		h.onCreate(w)
	}
	logger.Log.Info("Window created",
		zap.String("backend", string(mode)),
		zap.Int("samples", samples),
		zap.Int("width", width),
		zap.Int("height", height))
	return w, nil
}

func (h *windowHost) framebufferSize() (int, int) {
	if h.window == nil {
		return 0, 0
	}
	return h.window.GetFramebufferSize()
}

func (h *windowHost) shouldClose() bool {
	return h.window == nil || h.window.ShouldClose()
}

func (h *windowHost) setTitle(title string) {
	if h.window != nil {
		h.window.SetTitle(title)
	}
}

func (h *windowHost) destroy() {
	if h.window != nil {
		h.window.Destroy()
		h.window = nil
	}
}
