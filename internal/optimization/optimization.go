// Package optimization applies the scene level knobs: environment
// intensity, LOD bias and bounds trees.
package optimization

import (
	"GopherTestbed/internal/bvh"
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"go.uber.org/zap"
)

// LOD switch distance = index*LODSpacing + bias*LODBiasScale for every level
// past the first.
const (
	LODSpacing   float32 = 12
	LODBiasScale float32 = 3
)

// ApplyEnvironmentIntensity sets the environment multiplier on every PBR
// material and on the scene itself. It returns the number of materials set.
func ApplyEnvironmentIntensity(sc *scene.Scene, intensity float32) int {
	if sc == nil {
		return 0
	}
	sc.EnvironmentIntensity = intensity
	updated := 0
	scene.Walk(sc.Root(), scene.MeshVisitor(func(m *scene.Mesh) {
		if !m.Material.IsPBR() {
			return
		}
		m.Material.EnvMapIntensity = intensity
		updated++
	}))
	return updated
}

// UpdateLODBias recomputes the switch distances of every LOD node. The base
// level always switches at zero.
func UpdateLODBias(sc *scene.Scene, bias float32) int {
	if sc == nil {
		return 0
	}
	nodes := 0
	scene.Walk(sc.Root(), scene.LODVisitor(func(lod *scene.LOD) {
		for i := range lod.Levels {
			lod.Levels[i].Distance = LevelDistance(i, bias)
		}
		nodes++
	}))
	if nodes > 0 {
		logger.Log.Debug("LOD bias applied", zap.Float32("bias", bias), zap.Int("nodes", nodes))
	}
	return nodes
}

// LevelDistance returns the switch distance of LOD level index under bias.
func LevelDistance(index int, bias float32) float32 {
	if index == 0 {
		return 0
	}
	return float32(index)*LODSpacing + bias*LODBiasScale
}

// ApplyBvh builds bounds trees for every mesh lacking one when enabled and
// disposes them when disabled. It reports whether any tree was built or
// removed. The accelerated raycast itself is installed once by bvh.Install.
func ApplyBvh(sc *scene.Scene, enabled bool) bool {
	if sc == nil {
		return false
	}
	if !enabled {
		return bvh.Detach(sc.Root()) > 0
	}
	return bvh.Attach(sc.Root()) > 0
}
