package testbed

import (
	"fmt"
	"strings"

	"GopherTestbed/internal/content"
	"GopherTestbed/internal/inspector"
	"GopherTestbed/internal/lighting"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/optimization"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/renderer"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/support"

	"go.uber.org/zap"
)

const (
	StatusReady        = "Ready"
	statusInitializing = "Initializing..."
	customPreset       = "Custom"

	// normalization reaches its fixed point in one pass; the rest is slack
	maxNormalizePasses = 4
)

// reconcile is one settings-changed pass: normalize, rebuild if needed,
// then push everything into the live renderer, pipeline and scene.
func (d *Driver) reconcile() {
	if d.rend == nil || d.switching || d.fatal {
		return
	}
	mode := d.resolveMode()
	if label, ok := support.UnsupportedLabel(d.rendering, mode, mode.Label()); ok {
		d.unsupported = label
	} else {
		d.unsupported = ""
	}
	d.normalize(mode)

	if mode != d.backend || renderer.UsesMSAA(mode, d.rendering) != d.usingMSAA {
		if err := d.reloadRenderer(mode); err != nil {
			return
		}
		if d.backend != mode {
			d.unsupported = ""
		}
	}
	d.applyLive()
}

// resolveMode re-checks the requested backend against the host. A request
// the host cannot honor is rewritten to the fallback.
func (d *Driver) resolveMode() settings.RendererMode {
	requested := d.rendering.RendererMode
	mode := support.ResolveRendererMode(requested, d.caps)
	if mode != requested {
		d.editRendering(func(s *settings.RenderingSettings) { s.RendererMode = mode })
		d.status = fmt.Sprintf("%s unavailable; using %s.", requested.Label(), mode.Label())
		logger.Log.Info("Renderer request resolved to fallback",
			zap.String("requested", string(requested)), zap.String("resolved", string(mode)))
	}
	return mode
}

// normalize clears every control mode cannot run. It loops until the
// settings pointer stops changing.
func (d *Driver) normalize(mode settings.RendererMode) {
	for range maxNormalizePasses {
		d.support = support.MergeControlConstraints(support.GetAvailability(mode, d.rendering), d.constraints)
		next := support.NormalizeSettingsForSupport(d.rendering, d.support)
		if next == d.rendering {
			return
		}
		logger.Log.Debug("Settings normalized", zap.String("backend", string(mode)))
		d.rendering = next
	}
}

// reloadRenderer replaces the renderer: stop the loop, dispose the old
// renderer and pipeline, drop content and controls when the backend
// changes, build the new renderer, controls and pipeline, then resume.
func (d *Driver) reloadRenderer(mode settings.RendererMode) error {
	backendChanged := mode != d.backend
	d.switching = true
	d.updateStatus()
	logger.Log.Info("Rebuilding renderer",
		zap.String("from", string(d.backend)),
		zap.String("to", string(mode)),
		zap.Bool("backendChanged", backendChanged))

	d.disposeRenderer()
	if backendChanged {
		d.sceneToken++
		d.removeContent()
		d.controls = nil
	}

	err := d.createRenderer(mode)
	d.switching = false
	if err != nil {
		return err
	}
	if d.controls == nil {
		d.controls = renderer.CreateControls(d.stage.Camera, d.sceneSettings.AutoRotate)
	}
	d.initPipeline()
	d.running = true
	d.lastFrame = d.now()

	if backendChanged {
		if ref, ok := d.findCollection(d.collection); ok {
			d.loadCollection(ref)
		}
		d.status = fmt.Sprintf("Renderer switched to %s.", strings.ToUpper(string(d.backend)))
	}
	if d.backend != mode {
		d.status = fmt.Sprintf("%s failed to start; using %s.", mode.Label(), d.label)
	}
	d.normalize(d.backend)
	return nil
}

// applyLive pushes the normalized settings into everything that is live.
func (d *Driver) applyLive() {
	sc := d.stage.Scene

	pipeline.ApplyToneMapping(d.rend, d.bundle, d.sceneSettings)
	if d.controls != nil {
		d.controls.AutoRotate = d.sceneSettings.AutoRotate
	}

	if d.sceneSettings.EnvironmentMap != d.envEnabled {
		d.loadEnvironment(d.envURL)
	} else if p := d.currentPresentation(); p != d.presentation {
		d.presentation = p
		d.env.Present(sc, p)
	}
	optimization.ApplyEnvironmentIntensity(sc, d.sceneSettings.EnvironmentIntensity)
	optimization.UpdateLODBias(sc, d.sceneSettings.LODBias)

	pipeline.ApplyPostProcessing(d.bundle, d.rendering, d.backend, d.viewport, sc)
	lighting.SyncReflectors(sc, d.rendering.ScreenSpaceReflections, d.viewport)
	d.syncFlare()

	shadows := pipeline.ApplyShadowSettings(d.rend, d.rendering, d.backend, sc)
	d.shadowNote = shadows.FallbackMessage
	pipeline.ApplyTextureFiltering(sc, d.rendering, d.caps)

	if optimization.ApplyBvh(sc, d.sceneSettings.BVHEnabled) {
		d.snapshot = inspector.Build(sc)
	}
	d.updateStatus()
}

func (d *Driver) currentPresentation() lighting.Presentation {
	return lighting.Presentation{Backend: d.backend, PathTracing: d.rendering.PathTracing}
}

// syncFlare keeps one flare on the scene's primary light, moving it when
// the primary light changes.
func (d *Driver) syncFlare() {
	primary := d.stage.Scene.PrimaryLight()
	if d.flareLight != nil && d.flareLight != primary {
		d.detachFlare()
	}
	d.flare = lighting.SyncLensFlares(primary, d.flare, d.rendering.LensFlares)
	d.flareLight = nil
	if d.flare != nil {
		d.flareLight = primary
	}
}

func (d *Driver) detachFlare() {
	if d.flare == nil {
		return
	}
	lighting.SyncLensFlares(d.flareLight, d.flare, false)
	d.flare, d.flareLight = nil, nil
}

// removeContent takes the installed collection out of the scene.
func (d *Driver) removeContent() {
	if d.placement == nil {
		return
	}
	d.detachFlare()
	content.Remove(d.stage.Scene, d.placement)
	d.placement = nil
	d.refreshConstraints()
	d.snapshot = inspector.Build(d.stage.Scene)
}

// refreshConstraints reads the scene constraints. The bare stage imposes
// none, so settings survive until content arrives.
func (d *Driver) refreshConstraints() {
	if d.placement == nil {
		d.constraints = nil
		return
	}
	d.constraints = support.SceneControlConstraints(d.stage.Scene)
}

// updateStatus picks the one status line: switching, then shadow fallback,
// then unsupported features. Informational messages stay until a warning
// replaces them, and a cleared warning goes back to Ready.
func (d *Driver) updateStatus() {
	switch {
	case d.fatal:
	case d.switching:
		d.status = fmt.Sprintf("Switching renderer to %s...", d.rendering.RendererMode.Label())
	case d.shadowNote != "":
		d.status = d.shadowNote
	case d.unsupported != "":
		d.status = d.unsupported
	case isWarning(d.status) || d.status == statusInitializing:
		d.status = StatusReady
	}
}

func isWarning(status string) bool {
	for _, prefix := range []string{"Unsupported in ", "Shadow type ", "Switching renderer "} {
		if strings.HasPrefix(status, prefix) {
			return true
		}
	}
	return false
}
