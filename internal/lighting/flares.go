package lighting

import (
	"image"
	"image/color"
	"math"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

const flareTextureSize = 128

// SyncLensFlares attaches or removes the lens flare on the primary light and
// returns the flare now in place. Without a primary light the current flare
// is returned untouched.
func SyncLensFlares(primary *scene.Light, current *scene.LensFlare, enabled bool) *scene.LensFlare {
	if primary == nil {
		return current
	}

	if enabled && current == nil {
		flare := scene.NewLensFlare()
		warm, cool := scene.Hex(0xf7b545), scene.Hex(0x45e3c2)
		flare.AddElement(flareTexture("flare-warm", warm), 96, 0, warm)
		flare.AddElement(flareTexture("flare-cool", cool), 128, 0.4, cool)
		scene.Add(primary, flare)
		logger.Log.Debug("Lens flare attached")
		return flare
	}

	if !enabled && current != nil {
		scene.Remove(primary, current)
		current.Dispose()
		logger.Log.Debug("Lens flare removed")
		return nil
	}

	return current
}

// flareTexture draws a radial sprite: white core, tint at 40% radius, fading
// to transparent at the edge.
func flareTexture(name string, tint mgl32.Vec3) *scene.Texture {
	img := image.NewNRGBA(image.Rect(0, 0, flareTextureSize, flareTextureSize))
	const inner, outer = 8.0, flareTextureSize / 2.0
	center := float64(flareTextureSize) / 2
	for y := 0; y < flareTextureSize; y++ {
		for x := 0; x < flareTextureSize; x++ {
			d := math.Hypot(float64(x)+0.5-center, float64(y)+0.5-center)
			t := math.Max(0, math.Min(1, (d-inner)/(outer-inner)))
			img.SetNRGBA(x, y, flareColor(t, tint))
		}
	}
	return scene.NewTexture(name, img)
}

func flareColor(t float64, tint mgl32.Vec3) color.NRGBA {
	var r, g, b, a float64
	switch {
	case t <= 0.4:
		k := t / 0.4
		r = 1 + (float64(tint[0])-1)*k
		g = 1 + (float64(tint[1])-1)*k
		b = 1 + (float64(tint[2])-1)*k
		a = 1
	default:
		k := (t - 0.4) / 0.6
		r, g, b = float64(tint[0]), float64(tint[1]), float64(tint[2])
		a = 1 - k
	}
	return color.NRGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: uint8(a * 255)}
}
