package content

import (
	"context"
	"errors"

	"GopherTestbed/internal/assets"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/optimization"
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Kind says how a collection is built.
type Kind int

const (
	KindProcedural Kind = iota
	KindTerrain
	KindManifest
)

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindManifest:
		return "manifest"
	default:
		return "procedural"
	}
}

// Source is the part of the asset loader collections need.
type Source interface {
	LoadManifest(ctx context.Context, url string) (*assets.CollectionManifest, error)
	LoadMeshes(ctx context.Context, urls []string) ([]*assets.MeshAsset, []error)
}

// Collection is fetched content, ready to be installed into a scene on the
// render thread.
type Collection struct {
	Ref      assets.CollectionRef
	Kind     Kind
	Manifest *assets.CollectionManifest
	// Levels holds one entry per manifest LOD; failed levels are nil.
	Levels []*assets.MeshAsset
	// Failed lists the URLs that could not be loaded.
	Failed []string
}

// EnvironmentURL returns the environment map the collection asks for.
func (c *Collection) EnvironmentURL() string {
	if c == nil || c.Manifest == nil {
		return ""
	}
	return c.Manifest.Environment
}

// Builtins are the collections that need no files.
func Builtins() []assets.CollectionRef {
	return append(assets.DefaultCollections(),
		assets.CollectionRef{ID: TerrainCollectionID, DisplayName: "Procedural Terrain"})
}

// Fetch loads everything ref needs off the render thread. A missing or
// empty manifest falls back to the procedural room, never to an error.
func Fetch(ctx context.Context, src Source, ref assets.CollectionRef) (*Collection, error) {
	c := &Collection{Ref: ref, Kind: KindProcedural}
	if ref.ID == TerrainCollectionID && ref.ManifestURL == "" {
		c.Kind = KindTerrain
		return c, nil
	}
	if ref.ManifestURL == "" {
		return c, nil
	}

	manifest, err := src.LoadManifest(ctx, ref.ManifestURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Log.Warn("Manifest unavailable, using procedural scene",
			zap.String("collection", ref.ID), zap.Error(err))
		c.Failed = append(c.Failed, ref.ManifestURL)
		return c, nil
	}
	c.Manifest = manifest
	if len(manifest.LODs) == 0 {
		return c, nil
	}

	c.Kind = KindManifest
	var errs []error
	c.Levels, errs = src.LoadMeshes(ctx, manifest.LODs)
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Log.Warn("LOD level unavailable", zap.String("url", manifest.LODs[i]), zap.Error(err))
		c.Failed = append(c.Failed, manifest.LODs[i])
	}
	return c, nil
}

// Placement is an installed collection.
type Placement struct {
	Group          *scene.Group
	Kind           Kind
	CameraPosition mgl32.Vec3
	ControlTarget  mgl32.Vec3
	Triangles      int
}

// Procedural reports whether the procedural room is showing.
func (p *Placement) Procedural() bool { return p != nil && p.Kind == KindProcedural }

// Install builds the collection's nodes and adds them to sc.
func Install(sc *scene.Scene, c *Collection, lodBias, envIntensity float32) *Placement {
	p := &Placement{
		Kind:           c.Kind,
		CameraPosition: ProceduralCameraPosition,
		ControlTarget:  ProceduralControlTarget,
	}
	switch c.Kind {
	case KindTerrain:
		p.Group, p.Triangles = BuildTerrain(DefaultTerrainOptions(), lodBias)
		p.CameraPosition, p.ControlTarget = TerrainCameraPosition, TerrainControlTarget
	case KindManifest:
		p.Group, p.Triangles = buildLODChain(c, lodBias)
		if m := c.Manifest; m.InitialCameraPosition != nil {
			p.CameraPosition = mgl32.Vec3(*m.InitialCameraPosition)
		}
		if m := c.Manifest; m.InitialControlTarget != nil {
			p.ControlTarget = mgl32.Vec3(*m.InitialControlTarget)
		}
	default:
		p.Group = BuildProceduralRoom()
	}

	scene.Walk(p.Group, scene.MeshVisitor(func(m *scene.Mesh) {
		if m.Material.IsPBR() {
			m.Material.EnvMapIntensity = envIntensity
		}
	}))
	if sc != nil {
		sc.Add(p.Group)
	}
	logger.Log.Info("Collection installed",
		zap.String("collection", c.Ref.ID),
		zap.Stringer("kind", c.Kind),
		zap.Int("triangles", p.Triangles))
	return p
}

func buildLODChain(c *Collection, lodBias float32) (*scene.Group, int) {
	name := c.Manifest.DisplayName
	if name == "" {
		name = c.Ref.DisplayName
	}
	group := scene.NewGroup(name)
	lod := scene.NewLOD(name + " LOD")
	scene.Add(group, lod)

	triangles := 0
	for i, level := range c.Levels {
		if level == nil {
			continue
		}
		lod.AddLevel(level.Root, optimization.LevelDistance(i, lodBias))
		triangles += level.Triangles
	}
	return group, triangles
}

// Remove detaches an installed collection and frees its meshes.
func Remove(sc *scene.Scene, p *Placement) {
	if p == nil || p.Group == nil {
		return
	}
	if sc != nil {
		sc.Remove(p.Group)
	}
	scene.Walk(p.Group, scene.MeshVisitor(func(m *scene.Mesh) { m.Dispose() }))
	p.Group = nil
}

// Discard frees a fetched collection that was never installed.
func Discard(c *Collection) {
	if c == nil {
		return
	}
	for _, level := range c.Levels {
		if level == nil {
			continue
		}
		for _, m := range level.Meshes {
			m.Dispose()
		}
	}
}
