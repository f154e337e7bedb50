package imaging

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var textFace = basicfont.Face7x13

// Fill returns a w×h image painted with c.
func Fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Clone copies img into a new RGBA anchored at the origin.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Resize scales img to w×h with Catmull-Rom filtering.
func Resize(img image.Image, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

// Paste composites overlay onto a copy of base with its top-left corner at
// (x, y). The overlay's own alpha is honored and further scaled by alpha.
func Paste(base, overlay image.Image, x, y int, alpha uint8) *image.RGBA {
	out := Clone(base)
	ob := overlay.Bounds()
	r := image.Rect(x, y, x+ob.Dx(), y+ob.Dy())
	draw.DrawMask(out, r, overlay, ob.Min, image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Over)
	return out
}

// TextSize returns the pixel width and height of text in the built-in face
// at scale 1. Lines are split on "\n".
func TextSize(text string) (int, int) {
	lines := strings.Split(text, "\n")
	width := 0
	for _, line := range lines {
		if w := font.MeasureString(textFace, line).Ceil(); w > width {
			width = w
		}
	}
	return width, len(lines) * lineHeight()
}

func lineHeight() int {
	return textFace.Metrics().Height.Ceil()
}

// renderText draws text onto a transparent canvas sized to fit it.
func renderText(text string, c color.Color) *image.RGBA {
	w, h := TextSize(text)
	canvas := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	d := &font.Drawer{Dst: canvas, Src: image.NewUniform(c), Face: textFace}
	ascent := textFace.Metrics().Ascent.Ceil()
	for i, line := range strings.Split(text, "\n") {
		d.Dot = fixed.P(0, i*lineHeight()+ascent)
		d.DrawString(line)
	}
	return canvas
}

// DrawText renders text onto a copy of img with its top-left corner at
// (x, y). Scale enlarges the bitmap font with nearest-neighbor sampling.
func DrawText(img image.Image, text string, x, y int, c color.Color, scale int) *image.RGBA {
	out := Clone(img)
	if text == "" {
		return out
	}
	if scale < 1 {
		scale = 1
	}
	glyphs := renderText(text, c)
	gb := glyphs.Bounds()
	dst := image.Rect(x, y, x+gb.Dx()*scale, y+gb.Dy()*scale)
	draw.NearestNeighbor.Scale(out, dst, glyphs, gb, draw.Over, nil)
	return out
}

// Bubble describes one speech bubble.
type Bubble struct {
	Text      string
	X         int
	Y         int
	Width     int
	Height    int
	Fill      color.Color
	Border    color.Color
	TextColor color.Color
}

// BorderWidth is the outline thickness of speech bubbles in pixels.
const BorderWidth = 3

// SpeechBubble draws an elliptical bubble inside the rectangle of b on a
// copy of img and centers the wrapped text inside it.
func SpeechBubble(img image.Image, b Bubble) *image.RGBA {
	out := Clone(img)
	if b.Width <= 0 || b.Height <= 0 {
		return out
	}
	if b.Fill == nil {
		b.Fill = color.White
	}
	if b.Border == nil {
		b.Border = color.Black
	}
	if b.TextColor == nil {
		b.TextColor = color.Black
	}
	rx := float64(b.Width) / 2
	ry := float64(b.Height) / 2
	cx := float64(b.X) + rx
	cy := float64(b.Y) + ry
	inRx, inRy := rx-BorderWidth, ry-BorderWidth
	for py := b.Y; py < b.Y+b.Height; py++ {
		for px := b.X; px < b.X+b.Width; px++ {
			dx := float64(px) + 0.5 - cx
			dy := float64(py) + 0.5 - cy
			if dx*dx/(rx*rx)+dy*dy/(ry*ry) > 1 {
				continue
			}
			if inRx <= 0 || inRy <= 0 || dx*dx/(inRx*inRx)+dy*dy/(inRy*inRy) > 1 {
				out.Set(px, py, b.Border)
				continue
			}
			out.Set(px, py, b.Fill)
		}
	}

	// The largest axis-aligned rectangle inside an ellipse spans 1/sqrt(2) of each axis.
	maxWidth := int(float64(b.Width) * 0.7)
	text := strings.Join(WrapText(b.Text, maxWidth), "\n")
	if text == "" {
		return out
	}
	glyphs := renderText(text, b.TextColor)
	gb := glyphs.Bounds()
	tx := int(cx) - gb.Dx()/2
	ty := int(cy) - gb.Dy()/2
	draw.Draw(out, image.Rect(tx, ty, tx+gb.Dx(), ty+gb.Dy()), glyphs, image.Point{}, draw.Over)
	return out
}

// WrapText greedily breaks text into lines no wider than maxWidth pixels.
// A single word wider than maxWidth keeps its own line.
func WrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(textFace, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
