package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
	"mediaflow/internal/services/diffusion"
)

// ErrNoOverlay reports a paste without an image to insert.
var ErrNoOverlay = errors.New("no image to insert specified (path-to-image or image-to-insert)")

// Generator produces images from prompts.
type Generator interface {
	TextToImage(ctx context.Context, req diffusion.Request) (image.Image, error)
	ImageToImage(ctx context.Context, req diffusion.Request, init image.Image, strength float64) (image.Image, error)
}

// Builder holds one image artifact.
type Builder struct {
	*builder.Base[image.Image]
}

// NewBuilder constructs an image builder backed by store.
func NewBuilder(store *artifact.Store, logger *slog.Logger) *Builder {
	return &Builder{Base: builder.NewBase(artifact.KindImage, store, logger, ImageCodec)}
}

// Load resolves the current image from a file or the cache.
func (b *Builder) Load(src builder.Source) *Builder {
	b.Base.Load(src)
	return b
}

// Save writes the current image to a file and/or the cache.
func (b *Builder) Save(dst builder.Target) *Builder {
	b.Base.Save(dst)
	return b
}

func (b *Builder) prompt(src builder.TextSource, req *diffusion.Request) bool {
	text, err := b.ResolveText(src)
	if err != nil {
		b.Fail(err)
		return false
	}
	req.Prompt = strings.TrimSpace(text)
	return true
}

// Generate makes a diffusion image from the prompt the current image.
func (b *Builder) Generate(ctx context.Context, gen Generator, src builder.TextSource, req diffusion.Request) *Builder {
	if b.Err() != nil || !b.prompt(src, &req) {
		return b
	}
	b.Logger().Info("generating image from text",
		logging.Int("width", req.Width),
		logging.Int("height", req.Height),
		logging.Int("prompt_chars", len(req.Prompt)),
	)
	img, err := gen.TextToImage(ctx, req)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "text-to-image", "image generation failed", err))
		return b
	}
	b.Set(img)
	return b
}

// Rework runs the current image through image-to-image generation.
func (b *Builder) Rework(ctx context.Context, gen Generator, src builder.TextSource, req diffusion.Request, strength float64) *Builder {
	if !b.Ready("image-to-image") || !b.prompt(src, &req) {
		return b
	}
	current, _ := b.Current()
	b.Logger().Info("generating image from text and a base image", logging.Float64("strength", strength))
	img, err := gen.ImageToImage(ctx, req, current, strength)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "image-to-image", "image generation failed", err))
		return b
	}
	b.Set(img)
	return b
}

// FromColor makes a solid w×h image the current image.
func (b *Builder) FromColor(c color.Color, w, h int) *Builder {
	if b.Err() != nil {
		return b
	}
	b.Set(Fill(w, h, c))
	return b
}

// Resize scales the current image to w×h.
func (b *Builder) Resize(w, h int) *Builder {
	if !b.Ready("resize-image") {
		return b
	}
	current, _ := b.Current()
	b.Set(Resize(current, w, h))
	return b
}

// Paste composites the image at src onto the current image.
func (b *Builder) Paste(src builder.Source, x, y int, alpha uint8) *Builder {
	if !b.Ready("paste-image") {
		return b
	}
	var (
		overlay image.Image
		err     error
	)
	switch {
	case strings.TrimSpace(src.Path) != "":
		overlay, err = b.ReadFile(src.Path)
	case strings.TrimSpace(src.Name) != "":
		overlay, err = b.FromCache(src.Name)
	default:
		b.Logger().Error("no image to insert specified")
		err = ErrNoOverlay
	}
	if err != nil {
		b.Fail(err)
		return b
	}
	current, _ := b.Current()
	b.Set(Paste(current, overlay, x, y, alpha))
	return b
}

// DrawText renders text onto the current image.
func (b *Builder) DrawText(text string, x, y int, c color.Color, scale int) *Builder {
	if !b.Ready("draw-text") {
		return b
	}
	current, _ := b.Current()
	b.Set(DrawText(current, text, x, y, c, scale))
	return b
}

// Bubbles draws each speech bubble in order onto the current image.
func (b *Builder) Bubbles(bubbles []Bubble) *Builder {
	if !b.Ready("with-speech-bubbles") {
		return b
	}
	current, _ := b.Current()
	for _, bubble := range bubbles {
		current = SpeechBubble(current, bubble)
	}
	b.Set(current)
	return b
}
