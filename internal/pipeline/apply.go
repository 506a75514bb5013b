package pipeline

import (
	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
	"GopherTestbed/internal/support"

	"go.uber.org/zap"
)

// SMAA resolution scale per quality tier.
func smaaScale(q settings.QualityLevel) float32 {
	switch q {
	case settings.QualityLow:
		return 0.75
	case settings.QualityHigh:
		return 1.25
	default:
		return 1
	}
}

// AO kernel radius boost per quality tier.
func aoBoost(q settings.QualityLevel) float32 {
	switch q {
	case settings.QualityHigh:
		return 1.4
	case settings.QualityLow:
		return 0.8
	default:
		return 1
	}
}

// ApplyPostProcessing overwrites every stage parameter of bundle from s. It
// is idempotent: the same inputs always leave the bundle in the same state.
func ApplyPostProcessing(bundle Bundle, s *settings.RenderingSettings, backend settings.RendererMode, viewport Size, sc *scene.Scene) {
	if bundle == nil || s == nil {
		return
	}
	avail := support.MergeControlConstraints(
		support.GetAvailability(backend, s),
		support.SceneControlConstraints(sc),
	)
	on := func(k support.ControlKey) bool {
		return k.Get(s) && avail.Available(k)
	}
	aa := s.AntiAliasing
	if !avail.AntiAliasingAvailable(aa) {
		aa = settings.AntiAliasingNone
	}

	reflections := on(support.ScreenSpaceReflections)
	selects := syncReflectiveFloor(sc, reflections)

	switch b := bundle.(type) {
	case *DiscretePasses:
		applyDiscrete(b, s, aa, on, viewport, selects)
	case *GraphPipeline:
		applyGraph(b, s, aa, on, viewport, selects)
	}
}

func applyDiscrete(p *DiscretePasses, s *settings.RenderingSettings, aa settings.AntiAliasingMode, on func(support.ControlKey) bool, viewport Size, selects []*scene.Mesh) {
	if !viewport.Empty() {
		p.SetSize(viewport)
	}
	w, h := p.Size.Width, p.Size.Height

	p.FXAA.Enabled = aa == settings.AntiAliasingFXAA

	p.SMAA.Enabled = aa == settings.AntiAliasingSMAA
	scale := smaaScale(s.SMAAQuality)
	p.SMAA.Width = int(float32(w) * scale)
	p.SMAA.Height = int(float32(h) * scale)

	p.TAA.Enabled = aa == settings.AntiAliasingTAA
	p.TAA.SampleLevel = max(0, s.TAASamples-1)

	p.AO.Enabled = on(support.AmbientOcclusion)
	p.AO.KernelRadius = s.AORadius * aoBoost(s.AOQuality)

	p.DOF.Enabled = on(support.DepthOfField)
	p.DOF.Focus = s.DOFFocus
	p.DOF.Aperture = s.DOFAperture
	p.DOF.MaxBlur = s.DOFMaxBlur

	p.Reflection.Enabled = on(support.ScreenSpaceReflections)
	p.Reflection.Selects = selects

	p.Film.Enabled = on(support.FilmGrain)
	p.Vignette.Enabled = on(support.Vignette)
	p.Chromatic.Enabled = on(support.ChromaticAberration)
}

func applyGraph(g *GraphPipeline, s *settings.RenderingSettings, aa settings.AntiAliasingMode, on func(support.ControlKey) bool, viewport Size, selects []*scene.Mesh) {
	if !viewport.Empty() && viewport != g.Size {
		g.SetSize(viewport)
	}

	targets := map[Target]bool{TargetColor: true}
	out := &Node{Kind: NodeScenePass, Reads: []Target{TargetColor}}
	chain := func(kind NodeKind, params map[string]float32, reads ...Target) *Node {
		for _, t := range reads {
			targets[t] = true
		}
		out = &Node{Kind: kind, Input: out, Params: params, Reads: reads}
		return out
	}

	if on(support.AmbientOcclusion) {
		chain(NodeAO, map[string]float32{"radius": s.AORadius * aoBoost(s.AOQuality)}, TargetDepth, TargetNormal)
	}
	if on(support.DepthOfField) {
		chain(NodeDOF, map[string]float32{
			"focus":    s.DOFFocus,
			"aperture": s.DOFAperture,
			"maxBlur":  s.DOFMaxBlur,
		}, TargetDepth)
	}
	if on(support.ScreenSpaceReflections) {
		n := chain(NodeReflection, map[string]float32{"maxDistance": 8, "thickness": 0.02}, TargetDepth, TargetNormal, TargetMetalness)
		n.Selects = selects
	}
	switch aa {
	case settings.AntiAliasingFXAA:
		chain(NodeFXAA, nil)
	case settings.AntiAliasingSMAA:
		chain(NodeSMAA, map[string]float32{"scale": smaaScale(s.SMAAQuality)})
	case settings.AntiAliasingTAA:
		chain(NodeTAA, map[string]float32{"sampleLevel": float32(max(0, s.TAASamples-1))}, TargetDepth, TargetVelocity)
	}
	if on(support.FilmGrain) {
		chain(NodeFilmGrain, map[string]float32{"intensity": 0.25})
	}

	g.Output = out
	g.ActiveTargets = g.ActiveTargets[:0]
	for _, t := range AllTargets {
		if targets[t] {
			g.ActiveTargets = append(g.ActiveTargets, t)
		}
	}
	g.NeedsUpdate = true
	logger.Log.Debug("Graph pipeline rebuilt", zap.Stringer("output", g.Output))
}

// syncReflectiveFloor swaps the floor and its reflective proxy and returns
// the meshes reflections may sample.
func syncReflectiveFloor(sc *scene.Scene, reflections bool) []*scene.Mesh {
	if sc == nil {
		return nil
	}
	for _, n := range scene.FindTagged(sc.Root(), scene.TagReflectiveProxy) {
		n.Object().Visible = reflections
	}
	for _, n := range scene.FindTagged(sc.Root(), scene.TagReflectiveFloor) {
		if n.Object().HasTag(scene.TagReflectiveProxy) {
			continue
		}
		n.Object().Visible = !reflections
	}
	if !reflections {
		return nil
	}
	var selects []*scene.Mesh
	scene.Walk(sc.Root(), scene.MeshVisitor(func(m *scene.Mesh) {
		if m.HasTag(scene.TagReflectionExcluded) || m.HasTag(scene.TagReflectiveProxy) {
			return
		}
		selects = append(selects, m)
	}))
	return selects
}
