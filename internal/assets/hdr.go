package assets

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"GopherTestbed/internal/scene"
)

const maxRLEWidth = 0x7fff

// DecodeRGBE decodes a Radiance .hdr image into a linear RGB equirect texture.
// Only the common "-Y height +X width" orientation is accepted.
func DecodeRGBE(name string, r io.Reader) (*scene.Texture, error) {
	br := bufio.NewReader(r)

	magic, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.HasPrefix(magic, "#?") {
		return nil, fmt.Errorf("missing radiance signature: %w", ErrUnsupportedFormat)
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("pixel format %q: %w", format, ErrUnsupportedFormat)
		}
	}

	res, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read resolution: %w", err)
	}
	var width, height int
	if _, err := fmt.Sscanf(strings.TrimSpace(res), "-Y %d +X %d", &height, &width); err != nil {
		return nil, fmt.Errorf("resolution %q: %w", strings.TrimSpace(res), ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resolution %dx%d: %w", width, height, ErrUnsupportedFormat)
	}

	rgb := make([]float32, width*height*3)
	scan := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scan, width); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		row := rgb[y*width*3:]
		for x := 0; x < width; x++ {
			row[x*3], row[x*3+1], row[x*3+2] = rgbeToFloat(scan[x*4], scan[x*4+1], scan[x*4+2], scan[x*4+3])
		}
	}

	return scene.NewHDRTexture(name, width, height, rgb), nil
}

// readScanline fills scan with width RGBE pixels, decoding the adaptive run
// length encoding when the scanline starts with the 2,2 marker.
func readScanline(br *bufio.Reader, scan []byte, width int) error {
	if width < 8 || width > maxRLEWidth {
		_, err := io.ReadFull(br, scan)
		return err
	}
	head := scan[:4]
	if _, err := io.ReadFull(br, head); err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("scanline width mismatch")
	}

	channel := make([]byte, width)
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if n == 0 || x+n > width {
					return fmt.Errorf("bad run length")
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				copy(channel[x:x+n], bytes.Repeat([]byte{v}, n))
				x += n
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("bad literal length")
			}
			if _, err := io.ReadFull(br, channel[x:x+n]); err != nil {
				return err
			}
			x += n
		}
		for x := 0; x < width; x++ {
			scan[x*4+c] = channel[x]
		}
	}
	return nil
}

func rgbeToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := float32(math.Ldexp(1, int(e)-(128+8)))
	return (float32(r) + 0.5) * f, (float32(g) + 0.5) * f, (float32(b) + 0.5) * f
}

// EncodeRGBE writes a flat (unencoded) Radiance image. It backs scene
// exports and tests.
func EncodeRGBE(w io.Writer, width, height int, rgb []float32) error {
	if len(rgb) < width*height*3 {
		return fmt.Errorf("need %d floats, have %d", width*height*3, len(rgb))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", height, width)
	for i := 0; i < width*height; i++ {
		r, g, b := rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		m := max(r, g, b)
		if m < 1e-32 {
			bw.Write([]byte{0, 0, 0, 0})
			continue
		}
		frac, exp := math.Frexp(float64(m))
		scale := float32(frac * 256 / float64(m))
		bw.Write([]byte{byte(r * scale), byte(g * scale), byte(b * scale), byte(exp + 128)})
	}
	return bw.Flush()
}
