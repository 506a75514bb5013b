package testbed

import (
	"errors"
	"fmt"
	"strings"

	"GopherTestbed/internal/assets"
	"GopherTestbed/internal/content"
	"GopherTestbed/internal/inspector"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/optimization"
	"GopherTestbed/internal/scene"

	"go.uber.org/zap"
)

// loadCollection fetches ref in the background. Only the newest request
// is installed; older results are freed when they arrive.
func (d *Driver) loadCollection(ref assets.CollectionRef) {
	d.sceneToken++
	token := d.sceneToken
	d.collection = ref.ID
	d.status = fmt.Sprintf("Loading %s...", displayName(ref))

	var src content.Source
	if d.loader != nil {
		src = d.loader
	} else {
		ref.ManifestURL = ""
	}
	d.submit(func() {
		c, err := content.Fetch(d.ctx, src, ref)
		d.post(func() { d.finishCollection(token, c, err) })
	})
}

func (d *Driver) finishCollection(token uint64, c *content.Collection, err error) {
	if token != d.sceneToken {
		logger.Log.Debug("Discarding stale collection", zap.Uint64("token", token))
		content.Discard(c)
		return
	}
	if err != nil {
		if !errors.Is(err, d.ctx.Err()) {
			d.status = fmt.Sprintf("Failed to load %s: %v", d.collection, err)
		}
		logger.Log.Warn("Collection load failed", zap.String("collection", d.collection), zap.Error(err))
		return
	}

	sc := d.stage.Scene
	d.removeContent()
	d.placement = content.Install(sc, c, d.sceneSettings.LODBias, d.sceneSettings.EnvironmentIntensity)
	d.refreshConstraints()

	pos := d.placement.CameraPosition
	d.stage.Camera.SetPosition(pos.X(), pos.Y(), pos.Z())
	if d.controls != nil {
		d.controls.SetTarget(d.placement.ControlTarget)
	} else {
		d.stage.Camera.LookAt(d.placement.ControlTarget)
	}

	d.envURL = c.EnvironmentURL()
	d.loadEnvironment(d.envURL)

	d.status = collectionStatus(c)
	d.reconcile()
	d.snapshot = inspector.Build(sc)
}

func collectionStatus(c *content.Collection) string {
	name := displayName(c.Ref)
	switch {
	case c.Kind == content.KindProcedural && c.Ref.ManifestURL != "" && len(c.Failed) > 0:
		return fmt.Sprintf("Manifest unavailable for %s; using procedural scene.", name)
	case len(c.Failed) > 0:
		return fmt.Sprintf("Loaded %s; failed to load %s.", name, strings.Join(c.Failed, ", "))
	case c.Kind == content.KindProcedural:
		return "Procedural scene loaded."
	default:
		return fmt.Sprintf("Loaded %s.", name)
	}
}

func displayName(ref assets.CollectionRef) string {
	if ref.DisplayName != "" {
		return ref.DisplayName
	}
	return ref.ID
}

// loadEnvironment moves the scene toward the environment the settings ask
// for. A disabled map or an empty url resolves immediately; a url loads in
// the background and only the newest request is installed.
func (d *Driver) loadEnvironment(url string) {
	d.envToken++
	token := d.envToken
	d.envEnabled = d.sceneSettings.EnvironmentMap
	if !d.envEnabled || url == "" || d.loader == nil {
		d.applyEnvironment(nil)
		return
	}

	d.submit(func() {
		tex, err := d.loader.LoadEnvironmentMap(d.ctx, url)
		d.post(func() { d.finishEnvironment(token, url, tex, err) })
	})
}

func (d *Driver) finishEnvironment(token uint64, url string, tex *scene.Texture, err error) {
	if token != d.envToken {
		logger.Log.Debug("Discarding stale environment", zap.String("url", url))
		if tex != nil {
			tex.Dispose()
		}
		return
	}
	if err != nil {
		logger.Log.Warn("Environment map unavailable", zap.String("url", url), zap.Error(err))
		d.status = fmt.Sprintf("Failed to load environment %s.", url)
		d.applyEnvironment(nil)
		return
	}
	d.applyEnvironment(tex)
}

// applyEnvironment installs tex, or the procedural room when tex is nil.
func (d *Driver) applyEnvironment(tex *scene.Texture) {
	sc := d.stage.Scene
	d.presentation = d.currentPresentation()
	d.env.Apply(sc, d.presentation, tex, d.sceneSettings.EnvironmentMap)
	optimization.ApplyEnvironmentIntensity(sc, d.sceneSettings.EnvironmentIntensity)
	d.snapshot = inspector.Build(sc)
}
