package pipeline

import (
	"strings"

	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
)

// Target is one output of the multi-target scene pass.
type Target string

const (
	TargetColor     Target = "color"
	TargetDepth     Target = "depth"
	TargetNormal    Target = "normal"
	TargetVelocity  Target = "velocity"
	TargetMetalness Target = "metalness"
)

// AllTargets lists every output the scene pass can produce.
var AllTargets = []Target{TargetColor, TargetDepth, TargetNormal, TargetVelocity, TargetMetalness}

// NodeKind names an effect node.
type NodeKind string

// Node kinds, in composition order after the scene pass.
const (
	NodeScenePass  NodeKind = "scenePass"
	NodeAO         NodeKind = "ao"
	NodeDOF        NodeKind = "dof"
	NodeReflection NodeKind = "ssr"
	NodeFXAA       NodeKind = "fxaa"
	NodeSMAA       NodeKind = "smaa"
	NodeTAA        NodeKind = "taa"
	NodeFilmGrain  NodeKind = "filmGrain"
)

// Node is an effect node in the shader graph. Input is the upstream color.
type Node struct {
	Kind    NodeKind
	Input   *Node
	Params  map[string]float32
	Reads   []Target
	Selects []*scene.Mesh
}

// Chain returns the node kinds from the scene pass to n.
func (n *Node) Chain() []NodeKind {
	var rev []NodeKind
	for c := n; c != nil; c = c.Input {
		rev = append(rev, c.Kind)
	}
	out := make([]NodeKind, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

// String renders the chain for logs, e.g. "scenePass>ao>fxaa".
func (n *Node) String() string {
	chain := n.Chain()
	parts := make([]string, len(chain))
	for i, k := range chain {
		parts[i] = string(k)
	}
	return strings.Join(parts, ">")
}

// GraphPipeline is the WebGPU single composed output node.
type GraphPipeline struct {
	Scene  *scene.Scene
	Camera *scene.PerspectiveCamera
	Size   Size

	// Output is rebuilt from scratch on every apply.
	Output        *Node
	ActiveTargets []Target
	ToneMapping   settings.ToneMapping
	Exposure      float32
	NeedsUpdate   bool

	disposed bool
}

// NewGraphPipeline returns a graph whose output is the bare scene pass.
func NewGraphPipeline(sc *scene.Scene, camera *scene.PerspectiveCamera) *GraphPipeline {
	return &GraphPipeline{
		Scene:         sc,
		Camera:        camera,
		Size:          Size{1, 1},
		Output:        &Node{Kind: NodeScenePass, Reads: []Target{TargetColor}},
		ActiveTargets: []Target{TargetColor},
		Exposure:      1,
	}
}

func (*GraphPipeline) bundle() {}

// Backend reports the WebGPU backend.
func (*GraphPipeline) Backend() settings.RendererMode { return settings.RendererWebGPU }

// SetSize records the drawing-buffer size and flags the graph for
// recompilation. Empty sizes are ignored.
func (g *GraphPipeline) SetSize(size Size) {
	if size.Empty() {
		return
	}
	g.Size = size
	g.NeedsUpdate = true
}

// Dispose drops the node chain and the scene references.
func (g *GraphPipeline) Dispose() {
	g.disposed = true
	g.Output = nil
	g.Scene = nil
	g.Camera = nil
}

// Disposed reports whether Dispose has been called.
func (g *GraphPipeline) Disposed() bool { return g.disposed }
