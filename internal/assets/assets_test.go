package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# unit quad
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl red
f 1/1 2/2 3/3 4/4
`

const quadMTL = `newmtl red
Kd 1 0 0
Ns 250
Pm 0.5
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func newTestLoader(root, index string) *Loader {
	return NewLoader(Options{Root: root, IndexURL: index, Concurrency: 2})
}

func TestParseOBJQuad(t *testing.T) {
	lib := func(ref string) map[string]*scene.Material {
		assert.Equal(t, "quad.mtl", ref)
		m, err := ParseMTL(strings.NewReader(quadMTL))
		require.NoError(t, err)
		return m
	}
	asset, err := ParseOBJ("quad", strings.NewReader(quadOBJ), lib)
	require.NoError(t, err)

	require.Len(t, asset.Meshes, 1)
	assert.Equal(t, 2, asset.Triangles)
	mesh := asset.Meshes[0]
	assert.Len(t, mesh.Geometry.Positions, 4, "shared corners are unified")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Geometry.Indices)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, mesh.Material.Color)
	assert.Equal(t, float32(0.5), mesh.Material.Metalness)
	assert.True(t, mesh.CastShadow)
	assert.True(t, mesh.ReceiveShadow)
	assert.Contains(t, asset.Root.Children(), scene.Node(mesh))

	// normals were missing, so they are recomputed facing +Z
	for _, n := range mesh.Geometry.Normals {
		assert.InDelta(t, 1, n.Z(), 1e-5)
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf -3//-1 -2//-1 -1//-1\n"
	asset, err := ParseOBJ("tri", strings.NewReader(src), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, asset.Triangles)
	assert.Equal(t, "default", strings.TrimPrefix(asset.Meshes[0].Name, "tri:"))
}

func TestParseOBJErrors(t *testing.T) {
	_, err := ParseOBJ("bad", strings.NewReader("v 0 0 0\nf 1 2 3\n"), nil)
	assert.Error(t, err)

	_, err = ParseOBJ("empty", strings.NewReader("v 0 0 0\n"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestShininessToRoughness(t *testing.T) {
	assert.Equal(t, float32(1), shininessToRoughness(0))
	assert.Equal(t, float32(0.04), shininessToRoughness(1000))
	assert.Greater(t, shininessToRoughness(10), shininessToRoughness(500))
}

func TestRGBERoundTrip(t *testing.T) {
	const w, h = 3, 2
	rgb := []float32{
		0, 0, 0, 1, 1, 1, 4, 2, 0.5,
		0.25, 0.125, 0, 100, 50, 10, 0.01, 0.02, 0.03,
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeRGBE(&buf, w, h, rgb))

	tex, err := DecodeRGBE("probe.hdr", &buf)
	require.NoError(t, err)
	assert.Equal(t, w, tex.Width)
	assert.Equal(t, h, tex.Height)
	assert.Equal(t, scene.MappingEquirectangular, tex.Mapping)
	require.Len(t, tex.HDR, len(rgb))
	// RGBE shares one exponent per pixel, so precision follows the brightest channel.
	for i, v := range rgb {
		p := i / 3 * 3
		peak := max(rgb[p], rgb[p+1], rgb[p+2])
		assert.InDelta(t, v, tex.HDR[i], float64(peak)*0.02+1e-6, "channel %d", i)
	}
}

func TestDecodeRGBERunLength(t *testing.T) {
	const width = 8
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, width})
	// R, G, B: a run of 8 (128 mantissa); E: a run of 8 (exponent 129 => value 1)
	for _, v := range []byte{128, 128, 128, 129} {
		buf.Write([]byte{128 + width, v})
	}
	tex, err := DecodeRGBE("rle.hdr", &buf)
	require.NoError(t, err)
	for _, v := range tex.HDR {
		assert.InDelta(t, 1.0, v, 0.01)
	}
}

func TestDecodeRGBERejectsOtherFormats(t *testing.T) {
	_, err := DecodeRGBE("x", strings.NewReader("P6\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DecodeRGBE("x", strings.NewReader("#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeImageFitsMaxSize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tex, err := DecodeImage("albedo.png", buf.Bytes(), 16)
	require.NoError(t, err)
	assert.Equal(t, 16, tex.Width)
	assert.Equal(t, 8, tex.Height)

	_, err = DecodeImage("junk.png", []byte("nope"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "/assets/sponza/lod0.obj", Resolve("/assets/sponza/manifest.json", "lod0.obj"))
	assert.Equal(t, "/env/sky.hdr", Resolve("/assets/sponza/manifest.json", "/env/sky.hdr"))
	assert.Equal(t, "http://host/a/b.obj", Resolve("http://host/a/manifest.json", "b.obj"))
	assert.Equal(t, "https://cdn/x.hdr", Resolve("/assets/m.json", "https://cdn/x.hdr"))
	assert.Equal(t, ".hdr", extension("/env/Sky.HDR?v=2#frag"))
}

func TestCollectionsIndexFallsBack(t *testing.T) {
	ctx := context.Background()

	l := newTestLoader(t.TempDir(), "/assets/collections-index.json")
	defer l.Close()
	assert.Equal(t, DefaultCollections(), l.LoadCollectionsIndex(ctx), "missing index")

	dir := writeFiles(t, map[string]string{"assets/collections-index.json": "[]"})
	empty := newTestLoader(dir, "/assets/collections-index.json")
	defer empty.Close()
	assert.Equal(t, DefaultCollections(), empty.LoadCollectionsIndex(ctx), "empty index")

	dir = writeFiles(t, map[string]string{"assets/collections-index.json": "{"})
	broken := newTestLoader(dir, "/assets/collections-index.json")
	defer broken.Close()
	assert.Equal(t, DefaultCollections(), broken.LoadCollectionsIndex(ctx), "invalid index")
}

func TestLoadCollectionFromDisk(t *testing.T) {
	var hdr bytes.Buffer
	require.NoError(t, EncodeRGBE(&hdr, 2, 1, []float32{1, 1, 1, 2, 2, 2}))
	dir := writeFiles(t, map[string]string{
		"assets/collections-index.json": `[{"id":"quad","displayName":"Quad","manifestUrl":"quad/manifest.json"}]`,
		"assets/quad/manifest.json":     `{"name":"quad","lods":["quad.obj","quad.obj"],"environment":"studio.hdr","initialCameraPosition":[0,2,5]}`,
		"assets/quad/quad.obj":          quadOBJ,
		"assets/quad/quad.mtl":          quadMTL,
		"assets/quad/studio.hdr":        hdr.String(),
	})
	ctx := context.Background()
	l := newTestLoader(dir, "/assets/collections-index.json")
	defer l.Close()

	refs := l.LoadCollectionsIndex(ctx)
	require.Len(t, refs, 1)
	assert.Equal(t, "/assets/quad/manifest.json", refs[0].ManifestURL)

	m, err := l.LoadManifest(ctx, refs[0].ManifestURL)
	require.NoError(t, err)
	assert.Equal(t, "quad", m.DisplayName, "display name defaults to the name")
	assert.Equal(t, []string{"/assets/quad/quad.obj", "/assets/quad/quad.obj"}, m.LODs)
	assert.Equal(t, "/assets/quad/studio.hdr", m.Environment)
	require.NotNil(t, m.InitialCameraPosition)
	assert.Nil(t, m.InitialControlTarget)

	meshes, errs := l.LoadMeshes(ctx, m.LODs)
	for i := range meshes {
		require.NoError(t, errs[i])
		assert.Equal(t, mgl32.Vec3{1, 0, 0}, meshes[i].Meshes[0].Material.Color)
	}

	env, err := l.LoadEnvironmentMap(ctx, m.Environment)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Width)
	assert.Equal(t, scene.MappingEquirectangular, env.Mapping)
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/quad.obj":
			w.Write([]byte(quadOBJ))
		case "/models/quad.mtl":
			w.Write([]byte(quadMTL))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	l := newTestLoader("", "")
	defer l.Close()

	asset, err := l.LoadMeshAsync(ctx, srv.URL+"/models/quad.obj").Wait()
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, asset.Meshes[0].Material.Color)

	_, err = l.LoadMesh(ctx, srv.URL+"/models/missing.obj")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.LoadEnvironmentMap(ctx, srv.URL+"/env/missing.hdr")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnsupportedFormats(t *testing.T) {
	ctx := context.Background()
	l := newTestLoader(t.TempDir(), "")
	defer l.Close()

	_, err := l.LoadMesh(ctx, "/models/scene.gltf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = l.LoadEnvironmentMap(ctx, "/env/studio.exr")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = l.LoadManifest(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, DefaultCollections(), l.LoadCollectionsIndex(ctx), "no index configured")
}
