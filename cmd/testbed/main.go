// Command testbed opens a window and drives the render-configuration
// testbed: pick a collection, a backend and quality settings from the
// keyboard and watch the metrics in the title bar.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"GopherTestbed/internal/assets"
	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/config"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/presets"
	"GopherTestbed/internal/renderer"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/testbed"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

const titleInterval = 500 * time.Millisecond

func main() {
	runtime.LockOSThread()

	configPath := flag.String("config", "testbed.yaml", "path to the YAML host configuration")
	flag.Parse()

	cfg, cfgErr := config.Load(*configPath)
	logger.InitWithLevel(cfg.Log.Level)
	defer logger.Sync()
	if cfgErr != nil {
		logger.Log.Warn("Configuration unreadable, using defaults", zap.Error(cfgErr))
	}

	if err := run(cfg); err != nil {
		logger.Log.Error("Testbed stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// hostProbe probes the real machine and hands the texture limit to the
// asset loader.
type hostProbe struct {
	capabilities.Host
	loader *assets.Loader
}

func (p hostProbe) Detect() capabilities.Summary {
	s := p.Host.Detect()
	p.loader.SetMaxTextureSize(s.MaxTextureSize)
	return s
}

func run(cfg *config.Config) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := assets.NewLoader(assets.Options{
		Root:        cfg.Assets.Root,
		IndexURL:    cfg.Assets.Index,
		Concurrency: cfg.Assets.Concurrency,
		Timeout:     cfg.Assets.Timeout,
	})
	defer loader.Close()

	library := openPresets(ctx, cfg.Presets)

	rendering := settings.DefaultRenderingSettings()
	rendering.RendererMode = cfg.Renderer.Mode

	windows := newWindowHost(cfg.Window)
	defer windows.destroy()

	driver := testbed.New(testbed.Options{
		Factory: renderer.Factory{
			OpenGL: renderer.OpenGLOpener(windows),
			WebGPU: renderer.WebGPUOpener(windows),
		},
		Probe:             hostProbe{loader: loader},
		Loader:            loader,
		Presets:           library,
		Rendering:         &rendering,
		Collection:        cfg.Assets.Collection,
		BenchmarkDuration: cfg.Benchmark.Duration,
		Workers:           cfg.Assets.Concurrency,
	})
	defer driver.Close()

	input := newInput(driver, cfg.Benchmark.ExportDir)
	windows.onCreate = func(w *glfw.Window) {
		input.attach(w)
		w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
			driver.Resize(width, height)
		})
	}

	if err := driver.Initialize(pipeline.Size{Width: cfg.Window.Width, Height: cfg.Window.Height}); err != nil {
		return err
	}
	driver.Resize(windows.framebufferSize())

	var lastErr string
	var lastTitle time.Time
	for !windows.shouldClose() {
		glfw.PollEvents()
		now := time.Now()
		if err := driver.Frame(now); err != nil && err.Error() != lastErr {
			lastErr = err.Error()
			logger.Log.Warn("Frame failed", zap.Error(err))
		}
		if now.Sub(lastTitle) >= titleInterval {
			windows.setTitle(title(cfg.Window.Title, driver))
			lastTitle = now
		}
	}
	return nil
}

// openPresets returns the preset library for cfg, watching the file for
// outside edits when asked to.
func openPresets(ctx context.Context, cfg config.PresetsConfig) *presets.Library {
	if cfg.Path == "" {
		return presets.NewLibrary(presets.NewMemoryStore())
	}
	library := presets.NewLibrary(presets.NewFileStore(cfg.Path))
	if cfg.Watch {
		err := library.Watch(ctx, func(list []settings.Preset) {
			logger.Log.Info("Presets reloaded", zap.String("path", cfg.Path), zap.Int("count", len(list)))
		})
		if err != nil {
			logger.Log.Warn("Preset file not watched", zap.String("path", cfg.Path), zap.Error(err))
		}
	}
	return library
}

func title(base string, d *testbed.Driver) string {
	m := d.Metrics()
	label := d.RendererLabel()
	if label == "" {
		label = "no renderer"
	}
	t := fmt.Sprintf("%s | %s | %s | %.0f fps, %.2f ms cpu", base, label, d.Status(), m.FPS, m.CPUMs)
	if m.GPUMs != nil {
		t += fmt.Sprintf(", %.2f ms gpu", *m.GPUMs)
	}
	if b := d.BenchmarkState(); b.Active {
		t += fmt.Sprintf(" | benchmark %.0f%%", b.Progress*100)
	}
	return t
}
