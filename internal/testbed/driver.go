// Package testbed is the reconciliation driver: it owns the live renderer,
// scene and pipeline, and re-runs the reconcilers in a fixed order every
// time the settings change.
package testbed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"GopherTestbed/internal/assets"
	"GopherTestbed/internal/benchmark"
	"GopherTestbed/internal/bvh"
	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/content"
	"GopherTestbed/internal/framestats"
	"GopherTestbed/internal/inspector"
	"GopherTestbed/internal/lighting"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/pipeline"
	"GopherTestbed/internal/presets"
	"GopherTestbed/internal/renderer"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/support"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

var (
	// ErrNoRenderer is returned when neither backend could be opened.
	ErrNoRenderer = errors.New("no renderer available")
	// ErrNoSamples is returned when a benchmark export has nothing to report.
	ErrNoSamples = errors.New("no benchmark samples recorded")
)

// Loader is the asset side of the driver.
type Loader interface {
	content.Source
	LoadCollectionsIndex(ctx context.Context) []assets.CollectionRef
	LoadEnvironmentMap(ctx context.Context, url string) (*scene.Texture, error)
}

// Options wires the driver's collaborators.
type Options struct {
	Factory renderer.Factory
	Probe   capabilities.Probe
	// Loader may be nil; only the built-in collections are offered then.
	Loader  Loader
	Presets *presets.Library

	Rendering *settings.RenderingSettings
	Scene     *settings.SceneSettings
	// Collection is the collection shown first; empty picks the first one.
	Collection        string
	BenchmarkDuration time.Duration
	Now               func() time.Time
	// Workers bounds concurrent background loads.
	Workers int
}

// Driver is not safe for concurrent use: every method runs on the render
// thread. Background loads hand their results back through Poll.
type Driver struct {
	factory renderer.Factory
	probe   capabilities.Probe
	loader  Loader
	library *presets.Library
	now     func() time.Time

	caps          capabilities.Summary
	rendering     *settings.RenderingSettings
	sceneSettings *settings.SceneSettings
	presetName    string

	rend      renderer.Renderer
	label     string
	backend   settings.RendererMode
	usingMSAA bool
	bundle    pipeline.Bundle
	stage     renderer.Stage
	controls  *scene.OrbitControls
	viewport  pipeline.Size
	running   bool
	switching bool
	fatal     bool
	closed    bool

	constraints support.ControlConstraints
	support     support.RenderingSupport
	unsupported string
	shadowNote  string
	status      string

	env          *lighting.Reconciler
	envURL       string
	envToken     uint64
	envEnabled   bool
	presentation lighting.Presentation
	flare        *scene.LensFlare
	flareLight   *scene.Light

	collections []assets.CollectionRef
	collection  string
	placement   *content.Placement
	sceneToken  uint64

	stats     *framestats.Tracker
	bench     *benchmark.Runner
	snapshot  inspector.Snapshot
	lastFrame time.Time
	memoryMB  float64
	memoryAt  time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	pool     pond.Pool
	inflight sync.WaitGroup

	mu      sync.Mutex
	pending []func()
}

func New(opts Options) *Driver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	probe := opts.Probe
	if probe == nil {
		probe = capabilities.Static(capabilities.Fallback())
	}
	library := opts.Presets
	if library == nil {
		library = presets.NewLibrary(presets.NewMemoryStore())
	}
	rendering := opts.Rendering
	if rendering == nil {
		defaults := settings.DefaultRenderingSettings()
		rendering = &defaults
	}
	sceneSettings := opts.Scene
	if sceneSettings == nil {
		defaults := settings.DefaultSceneSettings()
		sceneSettings = &defaults
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		factory:       opts.Factory,
		probe:         probe,
		loader:        opts.Loader,
		library:       library,
		now:           now,
		rendering:     rendering.Clone(),
		sceneSettings: sceneSettings.Clone(),
		presetName:    customPreset,
		collection:    opts.Collection,
		status:        statusInitializing,
		env:           lighting.NewReconciler(),
		stats:         framestats.NewWithClock(now),
		bench:         benchmark.NewRunner(opts.BenchmarkDuration),
		ctx:           ctx,
		cancel:        cancel,
		pool:          pond.NewPool(workers),
	}
}

// Initialize probes the host, opens the renderer and starts loading the
// first collection. It fails only when no backend can be opened.
func (d *Driver) Initialize(size pipeline.Size) error {
	d.caps = d.probe.Detect()
	logger.Log.Info("Capabilities detected", zap.Stringer("caps", d.caps))

	d.collections = d.loadCollections()
	if d.library.SeedIfEmpty(settings.BuiltinPresets()) {
		logger.Log.Info("Seeded built-in presets")
	}

	// Picking goes through the BVH raycast whether or not trees are built.
	bvh.Install()
	d.stage = renderer.CreateScene()
	d.viewport = size

	mode := d.resolveMode()
	d.normalize(mode)
	if err := d.createRenderer(mode); err != nil {
		return err
	}
	d.controls = renderer.CreateControls(d.stage.Camera, d.sceneSettings.AutoRotate)
	d.initPipeline()
	d.loadEnvironment("")
	d.Resize(size.Width, size.Height)

	ref, ok := d.findCollection(d.collection)
	if !ok && len(d.collections) > 0 {
		ref, ok = d.collections[0], true
	}
	if ok {
		d.loadCollection(ref)
	}

	d.running = true
	d.lastFrame = d.now()
	d.reconcile()
	return nil
}

func (d *Driver) loadCollections() []assets.CollectionRef {
	var refs []assets.CollectionRef
	if d.loader != nil {
		refs = d.loader.LoadCollectionsIndex(d.ctx)
	} else {
		refs = assets.DefaultCollections()
	}
	for _, b := range content.Builtins() {
		if !slices.ContainsFunc(refs, func(r assets.CollectionRef) bool { return r.ID == b.ID }) {
			refs = append(refs, b)
		}
	}
	return refs
}

// createRenderer opens mode, retrying on OpenGL when the advanced backend
// fails to initialize.
func (d *Driver) createRenderer(mode settings.RendererMode) error {
	opts := renderer.Options{Mode: mode, Settings: d.rendering, Caps: d.caps, Size: d.viewport}
	res, err := d.factory.Create(opts)
	if err != nil && mode != settings.RendererOpenGL {
		logger.Log.Warn("Renderer failed, retrying with OpenGL",
			zap.String("backend", string(mode)), zap.Error(err))
		d.editRendering(func(s *settings.RenderingSettings) { s.RendererMode = settings.RendererOpenGL })
		d.normalize(settings.RendererOpenGL)
		opts.Mode = settings.RendererOpenGL
		opts.Settings = d.rendering
		res, err = d.factory.Create(opts)
	}
	if err != nil {
		d.fatal = true
		d.running = false
		d.status = fmt.Sprintf("Renderer unavailable: %v", err)
		logger.Log.Error("No renderer could be created", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNoRenderer, err)
	}

	d.fatal = false
	d.rend = res.Renderer
	d.label = res.Label
	d.backend = res.Backend
	d.usingMSAA = res.UsingMSAA
	d.stats.Init(d.rend.TimerQueries())
	d.bench.ResetMetrics()
	return nil
}

func (d *Driver) initPipeline() {
	d.bundle = renderer.CreateComposer(d.rend, d.stage.Scene, d.stage.Camera, d.rendering)
	if d.bundle != nil && !d.viewport.Empty() {
		d.bundle.SetSize(d.viewport)
	}
}

// disposeRenderer stops the loop and releases the renderer, its pipeline
// and its timer queries.
func (d *Driver) disposeRenderer() {
	d.running = false
	if d.bundle != nil {
		d.bundle.Dispose()
		d.bundle = nil
	}
	d.stats.Dispose()
	if d.rend != nil {
		d.rend.Dispose()
		d.rend = nil
	}
}

// Close releases everything the driver owns. In-flight loads are cancelled
// and their results discarded.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.cancel()
	d.envToken++
	d.sceneToken++
	d.pool.StopAndWait()
	d.Poll()

	sc := d.stage.Scene
	d.detachFlare()
	if d.placement != nil {
		content.Remove(sc, d.placement)
		d.placement = nil
	}
	lighting.SyncReflectors(sc, false, pipeline.Size{})
	d.env.Dispose(sc)
	d.disposeRenderer()
	logger.Log.Info("Testbed closed")
}

// editRendering publishes a modified copy of the rendering settings.
func (d *Driver) editRendering(edit func(*settings.RenderingSettings)) {
	next := d.rendering.Clone()
	edit(next)
	d.rendering = next
}

func (d *Driver) findCollection(id string) (assets.CollectionRef, bool) {
	i := slices.IndexFunc(d.collections, func(r assets.CollectionRef) bool { return r.ID == id })
	if i < 0 {
		return assets.CollectionRef{}, false
	}
	return d.collections[i], true
}

// submit runs work on the load pool. work hands its result back with post.
func (d *Driver) submit(work func()) {
	if d.ctx.Err() != nil {
		return
	}
	d.inflight.Add(1)
	d.pool.Submit(func() {
		defer d.inflight.Done()
		work()
	})
}

// post queues fn to run on the render thread at the next Poll.
func (d *Driver) post(fn func()) {
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// Poll runs the completions of finished background loads and returns how
// many ran.
func (d *Driver) Poll() int {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Settle waits for every background load, including the ones started by
// completions, and applies their results.
func (d *Driver) Settle() {
	for {
		d.inflight.Wait()
		if d.Poll() == 0 {
			return
		}
	}
}
