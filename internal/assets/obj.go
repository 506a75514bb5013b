package assets

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MeshAsset is one loaded mesh file: a group holding a mesh per material.
type MeshAsset struct {
	Root      *scene.Group
	Meshes    []*scene.Mesh
	Triangles int
}

// MaterialLibrary resolves an mtllib reference to its materials.
type MaterialLibrary func(ref string) map[string]*scene.Material

type faceVertex struct {
	v, vt, vn int32
}

type objBuilder struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	materials map[string]*scene.Material
	order     []string
	faces     map[string][]faceVertex
	current   string
}

// ParseOBJ reads a Wavefront OBJ stream. Faces are triangulated as fans and
// position/uv/normal triplets are unified into a single index buffer per
// material. Missing normals are recomputed.
func ParseOBJ(name string, r io.Reader, mtl MaterialLibrary) (*MeshAsset, error) {
	b := &objBuilder{
		materials: map[string]*scene.Material{},
		faces:     map[string][]faceVertex{},
		current:   "default",
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: vertex: %w", name, lineNo, err)
			}
			b.positions = append(b.positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: normal: %w", name, lineNo, err)
			}
			b.normals = append(b.normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: texture coordinate: %w", name, lineNo, err)
			}
			b.uvs = append(b.uvs, mgl32.Vec2{v[0], v[1]})
		case "f":
			face, err := parseFace(parts[1:], len(b.positions), len(b.uvs), len(b.normals))
			if err != nil {
				return nil, fmt.Errorf("%s:%d: face: %w", name, lineNo, err)
			}
			if _, ok := b.faces[b.current]; !ok {
				b.order = append(b.order, b.current)
			}
			b.faces[b.current] = append(b.faces[b.current], face...)
		case "mtllib":
			if len(parts) >= 2 && mtl != nil {
				for k, m := range mtl(parts[1]) {
					b.materials[k] = m
				}
			}
		case "usemtl":
			if len(parts) >= 2 {
				b.current = parts[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(b.order) == 0 {
		return nil, fmt.Errorf("%s has no faces: %w", name, ErrUnsupportedFormat)
	}

	return b.build(name), nil
}

func (b *objBuilder) build(name string) *MeshAsset {
	asset := &MeshAsset{Root: scene.NewGroup(name)}
	for _, matName := range b.order {
		g := b.geometry(b.faces[matName])
		mat, ok := b.materials[matName]
		if !ok {
			if matName != "default" {
				logger.Log.Debug("Material not found", zap.String("material", matName))
			}
			mat = scene.NewStandardMaterial(matName, mgl32.Vec3{0.8, 0.8, 0.8})
			mat.Roughness = 0.5
		}
		mesh := scene.NewMesh(name+":"+matName, g, mat)
		mesh.CastShadow = true
		mesh.ReceiveShadow = true
		scene.Add(asset.Root, mesh)
		asset.Meshes = append(asset.Meshes, mesh)
		asset.Triangles += g.TriangleCount()
	}
	logger.Log.Info("OBJ parsed",
		zap.String("name", name),
		zap.Int("meshes", len(asset.Meshes)),
		zap.Int("triangles", asset.Triangles))
	return asset
}

// geometry unifies the index triplets of faces into one vertex buffer.
func (b *objBuilder) geometry(faces []faceVertex) *scene.Geometry {
	index := make(map[faceVertex]uint32)
	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	indices := make([]uint32, 0, len(faces))
	missingNormals := false

	for _, fv := range faces {
		if idx, ok := index[fv]; ok {
			indices = append(indices, idx)
			continue
		}
		idx := uint32(len(positions))
		index[fv] = idx
		positions = append(positions, b.positions[fv.v])
		var uv mgl32.Vec2
		if fv.vt >= 0 {
			uv = b.uvs[fv.vt]
		}
		uvs = append(uvs, uv)
		n := mgl32.Vec3{0, 1, 0}
		if fv.vn >= 0 {
			n = b.normals[fv.vn]
		} else {
			missingNormals = true
		}
		normals = append(normals, n)
		indices = append(indices, idx)
	}

	g := scene.NewGeometry(positions, indices)
	g.UVs = uvs
	g.Normals = normals
	if missingNormals {
		g.ComputeVertexNormals()
	}
	return g
}

func parseFloats(parts []string, n int) ([]float32, error) {
	if len(parts) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", parts[i], err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// objIndex converts a 1-based (or negative, relative) OBJ index.
func objIndex(s string, count int) (int32, error) {
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", s, err)
	}
	if i < 0 {
		i = int64(count) + i + 1
	}
	if i < 1 || int(i) > count {
		return 0, fmt.Errorf("index %s out of range (%d)", s, count)
	}
	return int32(i - 1), nil
}

func parseFace(parts []string, nv, nt, nn int) ([]faceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("need at least 3 vertices, got %d", len(parts))
	}
	face := make([]faceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")
		v, err := objIndex(vals[0], nv)
		if err != nil {
			return nil, err
		}
		fv := faceVertex{v: v, vt: -1, vn: -1}
		if len(vals) > 1 && vals[1] != "" {
			if fv.vt, err = objIndex(vals[1], nt); err != nil {
				return nil, err
			}
		}
		if len(vals) > 2 && vals[2] != "" {
			if fv.vn, err = objIndex(vals[2], nn); err != nil {
				return nil, err
			}
		}
		face = append(face, fv)
	}

	tris := make([]faceVertex, 0, (len(face)-2)*3)
	for i := 1; i < len(face)-1; i++ {
		tris = append(tris, face[0], face[i], face[i+1])
	}
	return tris, nil
}

// ParseMTL reads a material library. Diffuse color maps to the base color,
// shininess to roughness and dissolve is ignored.
func ParseMTL(r io.Reader) (map[string]*scene.Material, error) {
	materials := make(map[string]*scene.Material)
	var current *scene.Material
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				continue
			}
			current = scene.NewStandardMaterial(fields[1], mgl32.Vec3{0.8, 0.8, 0.8})
			current.Roughness = 0.5
			materials[fields[1]] = current
			continue
		}
		if current == nil {
			continue
		}
		switch fields[0] {
		case "Kd":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				current.Color = mgl32.Vec3{v[0], v[1], v[2]}
			}
		case "Ke":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				current.Emissive = mgl32.Vec3{v[0], v[1], v[2]}
			}
		case "Ns":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				current.Roughness = shininessToRoughness(v[0])
			}
		case "Pm":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				current.Metalness = v[0]
			}
		case "Pr":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				current.Roughness = v[0]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

// shininessToRoughness maps a Phong exponent (0..1000) onto 0..1 roughness.
func shininessToRoughness(ns float32) float32 {
	ns = min(max(ns, 0), 1000)
	r := 1 - float32(math.Sqrt(float64(ns)/1000))
	return min(max(r, 0.04), 1)
}
