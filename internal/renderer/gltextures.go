package renderer

import (
	"fmt"
	"image"
	"image/draw"

	"GopherTestbed/internal/scene"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// textureMaxAnisotropy is GL_TEXTURE_MAX_ANISOTROPY_EXT, absent from the 4.1
// core bindings.
const textureMaxAnisotropy = 0x84FE

// glTextureUploader uploads scene textures. maxAnisotropy is the device
// limit; at 1 or below the extension is treated as missing.
type glTextureUploader struct {
	maxAnisotropy int
}

func (u glTextureUploader) Upload(t *scene.Texture) (uint32, int64, error) {
	if t.Width <= 0 || t.Height <= 0 {
		return 0, 0, fmt.Errorf("texture %q has no pixels", t.Name)
	}

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	var bytes int64
	switch {
	case len(t.HDR) >= t.Width*t.Height*3:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F, int32(t.Width), int32(t.Height), 0, gl.RGB, gl.FLOAT, gl.Ptr(t.HDR))
		bytes = int64(t.Width * t.Height * 12)
	case t.Image != nil:
		rgba, ok := t.Image.(*image.RGBA)
		if !ok || rgba.Stride != rgba.Rect.Size().X*4 {
			b := t.Image.Bounds()
			rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(rgba, rgba.Bounds(), t.Image, b.Min, draw.Src)
		}
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(rgba.Rect.Size().X), int32(rgba.Rect.Size().Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
		bytes = int64(len(rgba.Pix))
	default:
		gl.DeleteTextures(1, &textureID)
		return 0, 0, fmt.Errorf("texture %q has no pixels", t.Name)
	}
	gl.GenerateMipmap(gl.TEXTURE_2D)

	wrap := int32(gl.REPEAT)
	if t.Mapping != scene.MappingUV {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	u.applySampling(t)

	// mip chain adds a third
	return textureID, bytes * 4 / 3, nil
}

func (u glTextureUploader) UpdateSampling(handle uint32, t *scene.Texture) {
	gl.BindTexture(gl.TEXTURE_2D, handle)
	u.applySampling(t)
}

func (glTextureUploader) Free(handle uint32) {
	gl.DeleteTextures(1, &handle)
}

func (u glTextureUploader) applySampling(t *scene.Texture) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(t.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(t.MagFilter))
	if level, ok := anisotropyLevel(u.maxAnisotropy, t.Anisotropy); ok {
		gl.TexParameterf(gl.TEXTURE_2D, textureMaxAnisotropy, level)
	}
}

// anisotropyLevel returns the GL_TEXTURE_MAX_ANISOTROPY value for a texture,
// or false when the device has no anisotropic filtering.
func anisotropyLevel(limit, requested int) (float32, bool) {
	if limit <= 1 {
		return 0, false
	}
	return float32(min(max(requested, 1), limit)), true
}

func glFilter(f scene.Filter) int32 {
	switch f {
	case scene.FilterNearest:
		return gl.NEAREST
	case scene.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}
