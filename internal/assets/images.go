package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"GopherTestbed/internal/scene"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageExtensions are the LDR formats registered with image.Decode.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DecodeImage decodes an LDR image into a texture, scaling it down so
// neither side exceeds maxSize. A maxSize of zero keeps the source size.
func DecodeImage(name string, data []byte, maxSize int) (*scene.Texture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", name, ErrUnsupportedFormat, err)
	}
	img = fitImage(img, maxSize)
	t := scene.NewTexture(name, img)
	logDecoded(name, format, t.Width, t.Height)
	return t, nil
}

func fitImage(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}
	scale := float64(maxSize) / float64(max(b.Dx(), b.Dy()))
	w := max(int(float64(b.Dx())*scale), 1)
	h := max(int(float64(b.Dy())*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
