package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/colornames"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mediaflow/internal/builder"
	"mediaflow/internal/fileutil"
)

const jpegQuality = 92

// ImageCodec reads any registered format and writes by file extension.
var ImageCodec = builder.Codec[image.Image]{
	Read:  ReadImage,
	Write: WriteImage,
}

// ReadImage decodes the image at path.
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// WriteImage encodes img to path based on its extension. JPEG output drops
// the alpha channel.
func WriteImage(path string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("write image %s: nil image", path)
	}
	var encode func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", "":
		encode = func(w io.Writer) error { return png.Encode(w, img) }
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error {
			return jpeg.Encode(w, Opaque(img), &jpeg.Options{Quality: jpegQuality})
		}
	case ".bmp":
		encode = func(w io.Writer) error { return bmp.Encode(w, img) }
	case ".tif", ".tiff":
		encode = func(w io.Writer) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("write image %s: unsupported extension %q", path, ext)
	}
	return fileutil.WriteAtomicFunc(path, 0o644, encode)
}

// Opaque returns a copy of img with every pixel's alpha forced to 255 and
// its straight color kept.
func Opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 255
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// ParseColor accepts a CSS/SVG color name, "#rgb", "#rrggbb", "#rrggbbaa" or
// "rgb(r, g, b)".
func ParseColor(value string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v[1:])
	}
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		parts := strings.Split(v[4:len(v)-1], ",")
		if len(parts) != 3 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", value)
		}
		var rgb [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return color.RGBA{}, fmt.Errorf("invalid color %q", value)
			}
			rgb[i] = uint8(n)
		}
		return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", value)
}

func parseHex(hex string) (color.RGBA, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color #%s", hex)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color #%s", hex)
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// WithAlpha returns c with alpha a as a non-premultiplied color.
func WithAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}
