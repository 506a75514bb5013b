package testbed

import (
	"fmt"
	"io"

	"GopherTestbed/internal/assets"
	"GopherTestbed/internal/benchmark"
	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/inspector"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/support"

	"go.uber.org/zap"
)

// Status returns the single status line.
func (d *Driver) Status() string { return d.status }

// Rendering returns a copy of the current, normalized rendering settings.
func (d *Driver) Rendering() settings.RenderingSettings { return *d.rendering }

func (d *Driver) Scene() settings.SceneSettings { return *d.sceneSettings }

func (d *Driver) Support() support.RenderingSupport { return d.support }

// Features lists the controls with their availability for the panel.
func (d *Driver) Features() []support.FeatureSupport { return support.Features(d.support) }

func (d *Driver) Capabilities() capabilities.Summary { return d.caps }

// RendererLabel names the running backend, empty when none runs.
func (d *Driver) RendererLabel() string {
	if d.rend == nil {
		return ""
	}
	return d.label
}

func (d *Driver) Backend() settings.RendererMode { return d.backend }

func (d *Driver) Snapshot() inspector.Snapshot { return d.snapshot }

// Controls returns the orbit controls input is fed to. It is nil while no
// renderer runs.
func (d *Driver) Controls() *scene.OrbitControls { return d.controls }

// UpdateRendering applies edit to a copy of the rendering settings and
// reconciles when anything changed.
func (d *Driver) UpdateRendering(edit func(*settings.RenderingSettings)) {
	next := d.rendering.Clone()
	edit(next)
	if *next == *d.rendering {
		return
	}
	d.rendering = next
	d.presetName = customPreset
	d.reconcile()
}

// UpdateScene applies edit to a copy of the scene settings and reconciles
// when anything changed.
func (d *Driver) UpdateScene(edit func(*settings.SceneSettings)) {
	next := d.sceneSettings.Clone()
	edit(next)
	if *next == *d.sceneSettings {
		return
	}
	d.sceneSettings = next
	d.presetName = customPreset
	d.reconcile()
}

func (d *Driver) Presets() []settings.Preset { return d.library.List() }

// PresetName is the preset last applied or saved, or "Custom" after an edit.
func (d *Driver) PresetName() string { return d.presetName }

// ApplyPreset replaces both settings objects with the named preset. The
// running backend is kept.
func (d *Driver) ApplyPreset(name string) error {
	p, ok := d.library.Get(name)
	if !ok {
		return fmt.Errorf("preset %q not found", name)
	}
	rendering, sceneSettings := p.Rendering, p.Scene
	rendering.RendererMode = d.rendering.RendererMode
	d.rendering = &rendering
	d.sceneSettings = &sceneSettings
	d.presetName = p.Name
	logger.Log.Info("Preset applied", zap.String("preset", p.Name))
	d.reconcile()
	return nil
}

// SavePreset stores the current settings under name, replacing a preset
// of the same name.
func (d *Driver) SavePreset(name string) error {
	p := settings.Preset{Name: name, Rendering: *d.rendering, Scene: *d.sceneSettings}
	if err := d.library.Save(p); err != nil {
		return err
	}
	d.presetName = name
	d.status = fmt.Sprintf("Preset %s saved.", name)
	return nil
}

func (d *Driver) DeletePreset(name string) bool {
	if !d.library.Delete(name) {
		return false
	}
	if d.presetName == name {
		d.presetName = customPreset
	}
	return true
}

func (d *Driver) Collections() []assets.CollectionRef { return d.collections }

// Collection returns the id of the collection requested last.
func (d *Driver) Collection() string { return d.collection }

// SelectCollection starts loading the collection id.
func (d *Driver) SelectCollection(id string) error {
	ref, ok := d.findCollection(id)
	if !ok {
		return fmt.Errorf("unknown collection %q", id)
	}
	d.loadCollection(ref)
	return nil
}

// ExportMetrics writes the benchmark report as JSON.
func (d *Driver) ExportMetrics(w io.Writer) error {
	report, ok := d.bench.Report(d.label, d.presetName, *d.rendering, *d.sceneSettings)
	if !ok {
		return ErrNoSamples
	}
	return benchmark.WriteJSON(w, report)
}

// ExportScene writes the scene tree of the live scene as JSON.
func (d *Driver) ExportScene(w io.Writer) error {
	return benchmark.WriteJSON(w, inspector.Export(d.stage.Scene, d.collection))
}
