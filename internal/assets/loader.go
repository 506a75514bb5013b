package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// Options configures a Loader.
type Options struct {
	Root           string
	IndexURL       string
	Concurrency    int
	Timeout        time.Duration
	MaxTextureSize int
}

// Loader fetches and decodes assets. Mesh loads can run on a bounded worker
// pool; results are delivered as pond results the caller waits on.
type Loader struct {
	fetcher        *Fetcher
	indexURL       string
	maxTextureSize int

	meshes pond.ResultPool[*MeshAsset]
}

func NewLoader(opts Options) *Loader {
	concurrency := max(opts.Concurrency, 1)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		fetcher:        NewFetcher(opts.Root, timeout),
		indexURL:       opts.IndexURL,
		maxTextureSize: opts.MaxTextureSize,
		meshes:         pond.NewResultPool[*MeshAsset](concurrency),
	}
}

// SetMaxTextureSize clamps decoded LDR images; the probe fills it in once
// the host is ready.
func (l *Loader) SetMaxTextureSize(size int) { l.maxTextureSize = size }

// LoadCollectionsIndex returns the collections index, or the built-in
// procedural collection when the index is missing, broken or empty.
func (l *Loader) LoadCollectionsIndex(ctx context.Context) []CollectionRef {
	if l.indexURL == "" {
		return DefaultCollections()
	}
	data, err := l.fetcher.Fetch(ctx, l.indexURL)
	if err != nil {
		logger.Log.Warn("Collections index unavailable", zap.String("url", l.indexURL), zap.Error(err))
		return DefaultCollections()
	}
	refs, err := decodeIndex(data)
	if err != nil || len(refs) == 0 {
		logger.Log.Warn("Collections index empty or invalid", zap.String("url", l.indexURL), zap.Error(err))
		return DefaultCollections()
	}
	for i := range refs {
		if refs[i].ManifestURL != "" {
			refs[i].ManifestURL = Resolve(l.indexURL, refs[i].ManifestURL)
		}
	}
	return refs
}

// LoadManifest fetches a collection manifest. Relative LOD and environment
// URLs are resolved against the manifest URL.
func (l *Loader) LoadManifest(ctx context.Context, manifestURL string) (*CollectionManifest, error) {
	if manifestURL == "" {
		return nil, fmt.Errorf("manifest url: %w", ErrNotFound)
	}
	data, err := l.fetcher.Fetch(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	m, err := decodeManifest(data)
	if err != nil {
		return nil, err
	}
	for i, lod := range m.LODs {
		m.LODs[i] = Resolve(manifestURL, lod)
	}
	if m.Environment != "" {
		m.Environment = Resolve(manifestURL, m.Environment)
	}
	return m, nil
}

// LoadMesh fetches and parses a mesh file and its material library.
func (l *Loader) LoadMesh(ctx context.Context, meshURL string) (*MeshAsset, error) {
	if ext := extension(meshURL); ext != ".obj" {
		return nil, fmt.Errorf("mesh %s (%s): %w", meshURL, ext, ErrUnsupportedFormat)
	}
	data, err := l.fetcher.Fetch(ctx, meshURL)
	if err != nil {
		return nil, err
	}
	mtl := func(ref string) map[string]*scene.Material {
		mtlURL := Resolve(meshURL, ref)
		raw, err := l.fetcher.Fetch(ctx, mtlURL)
		if err != nil {
			logger.Log.Warn("Material library unavailable", zap.String("url", mtlURL), zap.Error(err))
			return nil
		}
		materials, err := ParseMTL(bytes.NewReader(raw))
		if err != nil {
			logger.Log.Warn("Material library invalid", zap.String("url", mtlURL), zap.Error(err))
			return nil
		}
		return materials
	}
	return ParseOBJ(meshName(meshURL), bytes.NewReader(data), mtl)
}

// LoadEnvironmentMap fetches an equirect environment map. Radiance .hdr is
// decoded to linear floats; LDR images are accepted as well.
func (l *Loader) LoadEnvironmentMap(ctx context.Context, envURL string) (*scene.Texture, error) {
	ext := extension(envURL)
	if ext != ".hdr" && !imageExtensions[ext] {
		return nil, fmt.Errorf("environment map %s: %w", envURL, ErrUnsupportedFormat)
	}
	data, err := l.fetcher.Fetch(ctx, envURL)
	if err != nil {
		return nil, err
	}

	var t *scene.Texture
	if ext == ".hdr" {
		t, err = DecodeRGBE(envURL, bytes.NewReader(data))
		if err == nil {
			logDecoded(envURL, "hdr", t.Width, t.Height)
		}
	} else {
		t, err = DecodeImage(envURL, data, l.maxTextureSize)
	}
	if err != nil {
		return nil, err
	}
	t.Mapping = scene.MappingEquirectangular
	t.MinFilter = scene.FilterLinear
	return t, nil
}

// LoadMeshAsync runs LoadMesh on the worker pool.
func (l *Loader) LoadMeshAsync(ctx context.Context, meshURL string) pond.Result[*MeshAsset] {
	return l.meshes.SubmitErr(func() (*MeshAsset, error) {
		return l.LoadMesh(ctx, meshURL)
	})
}

// LoadMeshes loads every URL concurrently, keeping the input order. Failed
// entries are nil and their errors are returned alongside.
func (l *Loader) LoadMeshes(ctx context.Context, urls []string) ([]*MeshAsset, []error) {
	pending := make([]pond.Result[*MeshAsset], len(urls))
	for i, u := range urls {
		pending[i] = l.LoadMeshAsync(ctx, u)
	}
	out := make([]*MeshAsset, len(urls))
	errs := make([]error, len(urls))
	for i, p := range pending {
		out[i], errs[i] = p.Wait()
	}
	return out, errs
}

// Close waits for in-flight mesh loads and stops the pool.
func (l *Loader) Close() {
	l.meshes.StopAndWait()
}

func meshName(meshURL string) string {
	p := meshURL
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, extension(p))
}

func logDecoded(name, format string, width, height int) {
	logger.Log.Debug("Image decoded",
		zap.String("name", name),
		zap.String("format", format),
		zap.Int("width", width),
		zap.Int("height", height))
}
