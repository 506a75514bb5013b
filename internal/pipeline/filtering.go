package pipeline

import (
	"GopherTestbed/internal/capabilities"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
)

// ApplyTextureFiltering sets sampling state on every map of every PBR
// material under sc and returns how many textures were touched.
func ApplyTextureFiltering(sc *scene.Scene, s *settings.RenderingSettings, caps capabilities.Summary) int {
	if sc == nil {
		return 0
	}
	aniso := caps.ClampAnisotropy(s.Anisotropy)
	seen := make(map[*scene.Texture]struct{})

	scene.Walk(sc.Root(), scene.MeshVisitor(func(m *scene.Mesh) {
		if !m.Material.IsPBR() {
			return
		}
		for _, t := range m.Material.Maps() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			switch s.TextureFiltering {
			case settings.FilteringLinear:
				t.MinFilter = scene.FilterLinear
				t.MagFilter = scene.FilterLinear
				t.Anisotropy = 1
			case settings.FilteringTrilinear:
				t.MinFilter = scene.FilterLinearMipmapLinear
				t.MagFilter = scene.FilterLinear
				t.Anisotropy = 1
			default:
				t.MinFilter = scene.FilterLinearMipmapLinear
				t.MagFilter = scene.FilterLinear
				t.Anisotropy = aniso
			}
			t.NeedsUpdate = true
		}
	}))
	return len(seen)
}
