package scene

import (
	"image"
	"sync/atomic"
)

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterLinearMipmapLinear
	FilterNearest
)

// Mapping describes how a texture is projected when used as an environment.
type Mapping int

const (
	MappingUV Mapping = iota
	MappingEquirectangular
	MappingCubeUV
)

var nextTextureID atomic.Uint64

// Texture is a CPU-side image plus the sampling state the renderers consume.
// GPU backends attach a release hook; Dispose runs it.
type Texture struct {
	ID     uint64
	Name   string
	Image  image.Image
	HDR    []float32 // linear RGB triples for floating point sources
	Width  int
	Height int

	Mapping    Mapping
	MinFilter  Filter
	MagFilter  Filter
	Anisotropy int

	// NeedsUpdate asks the backend to re-upload sampling state.
	NeedsUpdate bool

	release      func()
	disposeCount int
}

// NewTexture wraps an image.
func NewTexture(name string, img image.Image) *Texture {
	t := &Texture{
		ID:         nextTextureID.Add(1),
		Name:       name,
		Image:      img,
		MinFilter:  FilterLinearMipmapLinear,
		MagFilter:  FilterLinear,
		Anisotropy: 1,
	}
	if img != nil {
		b := img.Bounds()
		t.Width, t.Height = b.Dx(), b.Dy()
	}
	return t
}

// NewHDRTexture wraps linear floating point RGB data.
func NewHDRTexture(name string, width, height int, rgb []float32) *Texture {
	t := NewTexture(name, nil)
	t.Width, t.Height = width, height
	t.HDR = rgb
	t.Mapping = MappingEquirectangular
	return t
}

// SetRelease installs the hook that frees backend resources on Dispose.
func (t *Texture) SetRelease(release func()) {
	t.release = release
}

// Dispose releases backend resources. Owners call it exactly once.
func (t *Texture) Dispose() {
	t.disposeCount++
	if t.release != nil {
		t.release()
		t.release = nil
	}
}

// DisposeCount reports how many times Dispose has been called.
func (t *Texture) DisposeCount() int {
	return t.disposeCount
}

// Disposed reports whether Dispose has been called.
func (t *Texture) Disposed() bool {
	return t.disposeCount > 0
}
