package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"GopherTestbed/internal/benchmark"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/testbed"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// input maps keys and the mouse onto driver operations.
type input struct {
	driver     *testbed.Driver
	exportDir  string
	dragging   bool
	lastX      float64
	lastY      float64
	collection int
}

func newInput(d *testbed.Driver, exportDir string) *input {
	return &input{driver: d, exportDir: exportDir}
}

func (in *input) attach(w *glfw.Window) {
	w.SetKeyCallback(in.key)
	w.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		in.dragging = action == glfw.Press
		in.lastX, in.lastY = w.GetCursorPos()
	})
	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if in.dragging {
			if c := in.driver.Controls(); c != nil {
				c.Rotate(float32(x-in.lastX), float32(y-in.lastY))
			}
		}
		in.lastX, in.lastY = x, y
	})
	w.SetScrollCallback(func(_ *glfw.Window, _, dy float64) {
		if c := in.driver.Controls(); c != nil {
			c.Zoom(float32(dy))
		}
	})
}

func (in *input) key(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	d := in.driver
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyG:
		d.UpdateRendering(func(s *settings.RenderingSettings) {
			if s.RendererMode == settings.RendererWebGPU {
				s.RendererMode = settings.RendererOpenGL
			} else {
				s.RendererMode = settings.RendererWebGPU
			}
		})
	case glfw.KeyA:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.AntiAliasing = nextAntiAliasing(s.AntiAliasing) })
	case glfw.KeyO:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.AmbientOcclusion = !s.AmbientOcclusion })
	case glfw.KeyF:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.ScreenSpaceReflections = !s.ScreenSpaceReflections })
	case glfw.KeyD:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.DepthOfField = !s.DepthOfField })
	case glfw.KeyL:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.LensFlares = !s.LensFlares })
	case glfw.KeyT:
		d.UpdateRendering(func(s *settings.RenderingSettings) { s.PathTracing = !s.PathTracing })
	case glfw.KeyV:
		d.UpdateScene(func(s *settings.SceneSettings) { s.EnvironmentMap = !s.EnvironmentMap })
	case glfw.KeyH:
		d.UpdateScene(func(s *settings.SceneSettings) { s.BVHEnabled = !s.BVHEnabled })
	case glfw.KeySpace:
		d.UpdateScene(func(s *settings.SceneSettings) { s.AutoRotate = !s.AutoRotate })
	case glfw.KeyEqual:
		d.UpdateScene(func(s *settings.SceneSettings) { s.LODBias = min(s.LODBias+1, 4) })
	case glfw.KeyMinus:
		d.UpdateScene(func(s *settings.SceneSettings) { s.LODBias = max(s.LODBias-1, -4) })
	case glfw.Key1, glfw.Key2, glfw.Key3:
		name := []string{"Low", "Medium", "High"}[key-glfw.Key1]
		if err := d.ApplyPreset(name); err != nil {
			logger.Log.Warn("Preset not applied", zap.String("preset", name), zap.Error(err))
		}
	case glfw.KeyP:
		name := fmt.Sprintf("Saved %s", time.Now().Format("15:04:05"))
		if err := d.SavePreset(name); err != nil {
			logger.Log.Warn("Preset not saved", zap.Error(err))
		}
	case glfw.KeyC:
		refs := d.Collections()
		if len(refs) == 0 {
			return
		}
		in.collection = (in.collection + 1) % len(refs)
		if err := d.SelectCollection(refs[in.collection].ID); err != nil {
			logger.Log.Warn("Collection not selected", zap.Error(err))
		}
	case glfw.KeyB:
		d.StartBenchmark()
	case glfw.KeyE:
		in.export("benchmark", d.ExportMetrics)
	case glfw.KeyX:
		in.export("scene", d.ExportScene)
	}
}

func nextAntiAliasing(m settings.AntiAliasingMode) settings.AntiAliasingMode {
	order := []settings.AntiAliasingMode{
		settings.AntiAliasingNone,
		settings.AntiAliasingFXAA,
		settings.AntiAliasingSMAA,
		settings.AntiAliasingTAA,
		settings.AntiAliasingMSAA,
	}
	for i, o := range order {
		if o == m {
			return order[(i+1)%len(order)]
		}
	}
	return settings.AntiAliasingNone
}

// export writes one timestamped JSON file into the export directory.
func (in *input) export(prefix string, write func(io.Writer) error) {
	path := filepath.Join(in.exportDir, benchmark.FileName(prefix, time.Now()))
	f, err := os.Create(path)
	if err != nil {
		logger.Log.Warn("Export failed", zap.String("path", path), zap.Error(err))
		return
	}
	err = write(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if errors.Is(err, testbed.ErrNoSamples) {
			logger.Log.Info("Nothing to export yet; run a benchmark first")
		} else {
			logger.Log.Warn("Export failed", zap.String("path", path), zap.Error(err))
		}
		os.Remove(path)
		return
	}
	logger.Log.Info("Exported", zap.String("path", path))
}
