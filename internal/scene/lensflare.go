package scene

import "github.com/go-gl/mathgl/mgl32"

// FlareElement is one sprite of a lens flare.
type FlareElement struct {
	Texture  *Texture
	Size     float32
	Distance float32
	Color    mgl32.Vec3
}

// LensFlare is a screen-space sprite set attached to a light.
type LensFlare struct {
	Object3D
	Elements []FlareElement
}

func NewLensFlare() *LensFlare {
	return &LensFlare{Object3D: newObject("LensFlare", KindLensFlare)}
}

func (f *LensFlare) Object() *Object3D { return &f.Object3D }

func (f *LensFlare) Accept(v Visitor) { v.VisitLensFlare(f) }

// AddElement appends a flare sprite.
func (f *LensFlare) AddElement(texture *Texture, size, distance float32, color mgl32.Vec3) {
	f.Elements = append(f.Elements, FlareElement{Texture: texture, Size: size, Distance: distance, Color: color})
}

// Dispose releases every sprite texture once.
func (f *LensFlare) Dispose() {
	seen := make(map[*Texture]struct{})
	for _, e := range f.Elements {
		if e.Texture == nil {
			continue
		}
		if _, ok := seen[e.Texture]; ok {
			continue
		}
		seen[e.Texture] = struct{}{}
		e.Texture.Dispose()
	}
	f.Elements = nil
}
