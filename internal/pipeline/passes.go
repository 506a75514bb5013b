package pipeline

import (
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"
)

// Stage is the state every discrete pass shares.
type Stage struct {
	Name    string
	Enabled bool
}

// RenderPass draws the scene into the chain's first color target.
type RenderPass struct {
	Stage
	Scene  *scene.Scene
	Camera *scene.PerspectiveCamera
}

// FXAAPass applies fast approximate antialiasing.
type FXAAPass struct {
	Stage
	// Resolution is the reciprocal of the viewport size.
	Resolution [2]float32
}

// SMAAPass applies morphological antialiasing at the drawing-buffer size.
type SMAAPass struct {
	Stage
	Width, Height int
}

// TAAPass resolves 2^SampleLevel jittered samples per pixel.
type TAAPass struct {
	Stage
	SampleLevel int
}

// AOPass darkens creases from the depth buffer.
type AOPass struct {
	Stage
	KernelRadius  float32
	Width, Height int
}

// DOFPass blurs by distance from the focus plane.
type DOFPass struct {
	Stage
	Focus    float32
	Aperture float32
	MaxBlur  float32
}

// ReflectionPass renders planar reflections for Selects, or for every
// mesh when Selects is nil.
type ReflectionPass struct {
	Stage
	Width, Height int
	Selects       []*scene.Mesh
}

// FilmPass adds animated grain.
type FilmPass struct {
	Stage
	Intensity float32
}

// VignettePass darkens the frame edges.
type VignettePass struct {
	Stage
	Offset   float32
	Darkness float32
}

// ChromaticPass offsets the color channels radially.
type ChromaticPass struct {
	Stage
	Amount float32
}

// OutputPass tone maps and converts to the output color space. It is
// always last and always enabled.
type OutputPass struct {
	Stage
	ToneMapping settings.ToneMapping
	Exposure    float32
}

// DiscretePasses is the OpenGL chain of independently toggled passes.
type DiscretePasses struct {
	Size Size

	Render     *RenderPass
	AO         *AOPass
	Reflection *ReflectionPass
	FXAA       *FXAAPass
	SMAA       *SMAAPass
	TAA        *TAAPass
	DOF        *DOFPass
	Film       *FilmPass
	Vignette   *VignettePass
	Chromatic  *ChromaticPass
	Output     *OutputPass

	disposed bool
}

// NewDiscretePasses builds the chain with only the render and output
// passes enabled. DOF starts from the settings' focus values.
func NewDiscretePasses(sc *scene.Scene, camera *scene.PerspectiveCamera, s *settings.RenderingSettings) *DiscretePasses {
	return &DiscretePasses{
		Size:       Size{1, 1},
		Render:     &RenderPass{Stage: Stage{Name: "render", Enabled: true}, Scene: sc, Camera: camera},
		AO:         &AOPass{Stage: Stage{Name: "ao"}, Width: 1, Height: 1},
		Reflection: &ReflectionPass{Stage: Stage{Name: "ssr"}, Width: 1, Height: 1},
		FXAA:       &FXAAPass{Stage: Stage{Name: "fxaa"}, Resolution: [2]float32{1, 1}},
		SMAA:       &SMAAPass{Stage: Stage{Name: "smaa"}, Width: 1, Height: 1},
		TAA:        &TAAPass{Stage: Stage{Name: "taa"}},
		DOF: &DOFPass{
			Stage:    Stage{Name: "dof"},
			Focus:    s.DOFFocus,
			Aperture: s.DOFAperture,
			MaxBlur:  s.DOFMaxBlur,
		},
		Film:      &FilmPass{Stage: Stage{Name: "film"}, Intensity: 0.25},
		Vignette:  &VignettePass{Stage: Stage{Name: "vignette"}, Offset: 1, Darkness: 1},
		Chromatic: &ChromaticPass{Stage: Stage{Name: "chromatic"}, Amount: 0.0015},
		Output:    &OutputPass{Stage: Stage{Name: "output", Enabled: true}, Exposure: 1},
	}
}

func (*DiscretePasses) bundle() {}

// Backend reports the OpenGL backend.
func (*DiscretePasses) Backend() settings.RendererMode { return settings.RendererOpenGL }

// Stages returns the passes in execution order.
func (p *DiscretePasses) Stages() []*Stage {
	return []*Stage{
		&p.Render.Stage,
		&p.AO.Stage,
		&p.Reflection.Stage,
		&p.TAA.Stage,
		&p.DOF.Stage,
		&p.FXAA.Stage,
		&p.SMAA.Stage,
		&p.Film.Stage,
		&p.Chromatic.Stage,
		&p.Vignette.Stage,
		&p.Output.Stage,
	}
}

// EnabledStages returns the names of enabled passes in execution order.
func (p *DiscretePasses) EnabledStages() []string {
	var out []string
	for _, s := range p.Stages() {
		if s.Enabled {
			out = append(out, s.Name)
		}
	}
	return out
}

// SetSize resizes the size-dependent passes.
func (p *DiscretePasses) SetSize(size Size) {
	if size.Empty() {
		return
	}
	p.Size = size
	p.FXAA.Resolution = [2]float32{1 / float32(size.Width), 1 / float32(size.Height)}
	p.AO.Width, p.AO.Height = size.Width, size.Height
	p.Reflection.Width, p.Reflection.Height = size.Width, size.Height
}

// Dispose drops scene references. Passes own no GPU memory; the renderer
// allocates its targets from the pass descriptions.
func (p *DiscretePasses) Dispose() {
	p.disposed = true
	p.Render.Scene = nil
	p.Render.Camera = nil
	p.Reflection.Selects = nil
}

// Disposed reports whether Dispose has been called.
func (p *DiscretePasses) Disposed() bool { return p.disposed }
