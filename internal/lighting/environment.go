// Package lighting reconciles image based lighting, lens flares and
// reflector render targets against the current settings.
package lighting

import (
	"math"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"
	"GopherTestbed/internal/settings"

	"go.uber.org/zap"
)

// Background colors shown behind each kind of environment.
const (
	ProceduralBackground uint32 = 0x0b1117
	LoadedBackground     uint32 = 0x070b10
)

// State is the environment state of one scene.
type State int

const (
	StateNone State = iota
	StateProcedural
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateProcedural:
		return "procedural"
	case StateLoaded:
		return "loaded"
	default:
		return "none"
	}
}

// Presentation is what the derivative texture is prepared for. The path
// tracing presentation samples the unfiltered source.
type Presentation struct {
	Backend     settings.RendererMode
	PathTracing bool
}

// Equirect resolution of the synthesized room.
const (
	proceduralWidth  = 64
	proceduralHeight = 32
)

// Reconciler owns the environment textures of one scene. The loaded source
// is kept apart from the derivative the renderer samples, so presentation
// changes regenerate the derivative without fetching the asset again.
type Reconciler struct {
	state        State
	source       *scene.Texture
	derivative   *scene.Texture
	derivedFrom  *scene.Texture
	presentation Presentation
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

func (r *Reconciler) State() State { return r.state }

// Source returns the retained loaded texture, if any.
func (r *Reconciler) Source() *scene.Texture { return r.source }

// Active returns the texture installed as the scene environment.
func (r *Reconciler) Active() *scene.Texture { return r.derivative }

// Apply moves sc to the environment described by hdr and enabled.
// A nil hdr with enabled set installs the procedural room. Passing the
// retained source again keeps it and only rebuilds the derivative when the
// presentation changed.
func (r *Reconciler) Apply(sc *scene.Scene, p Presentation, hdr *scene.Texture, enabled bool) {
	if sc == nil {
		if hdr != nil && hdr != r.source {
			hdr.Dispose()
		}
		return
	}

	next := StateNone
	switch {
	case !enabled:
	case hdr == nil:
		next = StateProcedural
	default:
		next = StateLoaded
	}

	var keep *scene.Texture
	if next == StateLoaded {
		keep = hdr
	}
	if r.source != nil && r.source != keep {
		r.source.Dispose()
	}
	if hdr != nil && hdr != keep && hdr != r.source {
		hdr.Dispose()
	}
	r.source = keep

	changed := next != r.state || p != r.presentation || r.derivative == nil || r.derivative.Disposed()
	if next == StateLoaded && r.derivedFrom != r.source {
		changed = true
	}
	r.state = next
	r.presentation = p

	switch next {
	case StateNone:
		r.install(sc, nil)
		r.derivedFrom = nil
		sc.Background = scene.Hex(ProceduralBackground)
	case StateProcedural:
		if changed {
			r.install(sc, proceduralEnvironment())
			r.derivedFrom = nil
		}
		sc.Background = scene.Hex(ProceduralBackground)
	case StateLoaded:
		if changed {
			r.install(sc, prefilter(r.source, p))
			r.derivedFrom = r.source
		}
		sc.Background = scene.Hex(LoadedBackground)
	}
	sc.Environment = r.derivative

	logger.Log.Debug("Environment applied",
		zap.Stringer("state", next),
		zap.String("backend", string(p.Backend)),
		zap.Bool("pathTracing", p.PathTracing))
}

// Present rebuilds the derivative for a new presentation from the retained
// source.
func (r *Reconciler) Present(sc *scene.Scene, p Presentation) {
	r.Apply(sc, p, r.source, r.state != StateNone)
}

// install swaps the derivative, disposing the previous one unless it is the
// same texture.
func (r *Reconciler) install(sc *scene.Scene, t *scene.Texture) {
	if r.derivative != nil && r.derivative != t {
		r.derivative.Dispose()
	}
	r.derivative = t
	sc.Environment = t
}

// Dispose releases the retained source and derivative.
func (r *Reconciler) Dispose(sc *scene.Scene) {
	if sc != nil && sc.Environment == r.derivative {
		sc.Environment = nil
	}
	if r.derivative != nil {
		r.derivative.Dispose()
		r.derivative = nil
	}
	if r.source != nil {
		r.source.Dispose()
		r.source = nil
	}
	r.derivedFrom = nil
	r.state = StateNone
}

func derivativeName(source *scene.Texture) string {
	return source.Name + "#env"
}

// prefilter derives the texture the renderer samples from an equirect
// source. Raster presentations get a half resolution blurred copy, path
// tracing gets the full resolution radiance.
func prefilter(source *scene.Texture, p Presentation) *scene.Texture {
	if p.PathTracing || len(source.HDR) < source.Width*source.Height*3 || source.Width < 4 || source.Height < 4 {
		rgb := append([]float32(nil), source.HDR...)
		t := scene.NewHDRTexture(derivativeName(source), source.Width, source.Height, rgb)
		if source.Image != nil && len(rgb) == 0 {
			t.Image = source.Image
		}
		return t
	}

	w, h := source.Width/2, source.Height/2
	half := make([]float32, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var sum float32
				for _, o := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
					sum += source.HDR[((2*y+o[1])*source.Width+2*x+o[0])*3+c]
				}
				half[(y*w+x)*3+c] = sum / 4
			}
		}
	}
	return scene.NewHDRTexture(derivativeName(source), w, h, blur(half, w, h))
}

// blur is a 3x3 box filter that wraps horizontally and clamps vertically.
func blur(rgb []float32, w, h int) []float32 {
	out := make([]float32, len(rgb))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var sum float32
				for dy := -1; dy <= 1; dy++ {
					yy := min(max(y+dy, 0), h-1)
					for dx := -1; dx <= 1; dx++ {
						xx := (x + dx + w) % w
						sum += rgb[(yy*w+xx)*3+c]
					}
				}
				out[(y*w+x)*3+c] = sum / 9
			}
		}
	}
	return out
}

// proceduralEnvironment synthesizes a neutral studio room: dim floor, soft
// walls and two overhead light panels.
func proceduralEnvironment() *scene.Texture {
	rgb := make([]float32, proceduralWidth*proceduralHeight*3)
	for y := 0; y < proceduralHeight; y++ {
		// 0 at the zenith, 1 at the nadir
		v := (float64(y) + 0.5) / proceduralHeight
		elevation := math.Cos(v * math.Pi)
		for x := 0; x < proceduralWidth; x++ {
			u := (float64(x) + 0.5) / proceduralWidth
			var l float64
			switch {
			case elevation < -0.2:
				l = 0.18
			case elevation > 0.85:
				l = 0.9
			default:
				l = 0.35 + 0.25*elevation
			}
			if elevation > 0.5 && (math.Abs(u-0.25) < 0.06 || math.Abs(u-0.75) < 0.06) {
				l = 6
			}
			i := (y*proceduralWidth + x) * 3
			rgb[i] = float32(l)
			rgb[i+1] = float32(l)
			rgb[i+2] = float32(l * 1.04)
		}
	}
	return scene.NewHDRTexture("procedural-room", proceduralWidth, proceduralHeight, rgb)
}
