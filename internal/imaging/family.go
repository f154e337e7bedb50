package imaging

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"net/url"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	"mediaflow/internal/logging"
	"mediaflow/internal/services/diffusion"
)

// TypeName is the activity type routed to this family.
const TypeName = "sdp"

const defaultSize = 512

// Family is the image command table.
type Family struct {
	store        *artifact.Store
	logger       *slog.Logger
	settings     diffusion.Config
	newGenerator func(diffusion.Config) Generator
	generator    Generator
}

// New is the handler.Factory backed by the Stable Diffusion WebUI API.
func New(env handler.Env) (handler.Family, error) {
	return newFamily(env, func(cfg diffusion.Config) Generator {
		return diffusion.NewClient(cfg)
	}), nil
}

// NewFactory returns a factory that always uses gen.
func NewFactory(gen Generator) handler.Factory {
	return func(env handler.Env) (handler.Family, error) {
		return newFamily(env, func(diffusion.Config) Generator { return gen }), nil
	}
}

func newFamily(env handler.Env, newGenerator func(diffusion.Config) Generator) *Family {
	cfg := env.Config
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &Family{
		store:        env.Store,
		logger:       logging.NewComponentLogger(env.Logger, TypeName),
		settings:     diffusion.ConfigFrom(cfg),
		newGenerator: newGenerator,
	}
}

type defaults struct {
	BaseURL        string  `json:"base-url"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg-scale"`
	NegativePrompt string  `json:"negative-prompt"`
}

// LoadDefaults applies "base-url", "steps", "cfg-scale" and "negative-prompt"
// over the configured diffusion settings.
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	d := defaults{
		BaseURL:        f.settings.BaseURL,
		Steps:          f.settings.Steps,
		CFGScale:       f.settings.CFGScale,
		NegativePrompt: f.settings.NegativePrompt,
	}
	if err := params.Decode(&d); err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(d.BaseURL); err != nil {
		return fmt.Errorf("base-url: %w", err)
	}
	if d.Steps <= 0 {
		return errors.New("steps must be positive")
	}
	if d.CFGScale <= 0 {
		return errors.New("cfg-scale must be positive")
	}
	f.settings.BaseURL = strings.TrimRight(d.BaseURL, "/")
	f.settings.Steps = d.Steps
	f.settings.CFGScale = d.CFGScale
	f.settings.NegativePrompt = d.NegativePrompt
	f.generator = f.newGenerator(f.settings)
	f.logger.Debug("diffusion settings loaded",
		logging.String("base_url", f.settings.BaseURL),
		logging.Int("steps", f.settings.Steps),
	)
	return nil
}

// Commands returns the image command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"text-to-image":       handler.CommandFunc(f.textToImage),
		"image-to-image":      handler.CommandFunc(f.imageToImage),
		"color-to-image":      handler.CommandFunc(f.colorToImage),
		"resize-image":        handler.CommandFunc(f.resizeImage),
		"paste-image":         handler.CommandFunc(f.pasteImage),
		"draw-text":           handler.CommandFunc(f.drawText),
		"with-speech-bubbles": handler.CommandFunc(f.withSpeechBubbles),
	}
}

type ioParams struct {
	InputPath  string `json:"input-image-path"`
	OutputPath string `json:"output-image-path"`
	Name       string `json:"image-name"`
}

func (p ioParams) source() builder.Source {
	return builder.Source{Path: p.InputPath, Name: p.Name}
}

func (p ioParams) target() builder.Target {
	return builder.Target{Path: p.OutputPath, Name: p.Name}
}

type sizeParams struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (p sizeParams) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", p.Width, p.Height)
	}
	return nil
}

type promptParams struct {
	Text           string  `json:"text"`
	InputTextPath  string  `json:"input-text-path"`
	TextName       string  `json:"text-name"`
	NegativePrompt string  `json:"negative-prompt"`
	Seed           int64   `json:"seed"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg-scale"`
}

func (p promptParams) promptSource() builder.TextSource {
	return builder.TextSource{Text: p.Text, Path: p.InputTextPath, Name: p.TextName}
}

type textToImageParams struct {
	ioParams
	sizeParams
	promptParams
}

func (p *textToImageParams) Validate() error { return p.validate() }

func (f *Family) request(p promptParams, size sizeParams) diffusion.Request {
	return diffusion.Request{
		NegativePrompt: p.NegativePrompt,
		Steps:          p.Steps,
		CFGScale:       p.CFGScale,
		Width:          size.Width,
		Height:         size.Height,
		Seed:           p.Seed,
	}
}

func (f *Family) textToImage(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, textToImageParams{
		sizeParams: sizeParams{Width: defaultSize, Height: defaultSize},
	})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	return NewBuilder(f.store, logger).
		Generate(ctx, f.generator, params.promptSource(), f.request(params.promptParams, params.sizeParams)).
		Save(params.target()).
		Err()
}

type imageToImageParams struct {
	ioParams
	promptParams
	Strength float64 `json:"strength"`
}

func (p *imageToImageParams) Validate() error {
	if p.Strength <= 0 || p.Strength > 1 {
		return fmt.Errorf("strength must be within (0, 1], got %v", p.Strength)
	}
	return nil
}

func (f *Family) imageToImage(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, imageToImageParams{Strength: 0.75})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	return NewBuilder(f.store, logger).
		Load(params.source()).
		Rework(ctx, f.generator, params.promptSource(), f.request(params.promptParams, sizeParams{}), params.Strength).
		Save(params.target()).
		Err()
}

type colorParams struct {
	ioParams
	sizeParams
	Color string `json:"color"`
	Alpha int    `json:"alpha"`
}

func (p *colorParams) Validate() error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.Alpha < 0 || p.Alpha > 255 {
		return fmt.Errorf("alpha must be within [0, 255], got %d", p.Alpha)
	}
	_, err := ParseColor(p.Color)
	return err
}

func (f *Family) colorToImage(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, colorParams{
		sizeParams: sizeParams{Width: defaultSize, Height: defaultSize},
		Color:      "black",
		Alpha:      255,
	})
	if err != nil {
		return err
	}
	c, _ := ParseColor(params.Color)
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("creating image from color", logging.String("color", params.Color))
	return NewBuilder(f.store, logger).
		FromColor(WithAlpha(c, uint8(params.Alpha)), params.Width, params.Height).
		Save(params.target()).
		Err()
}

type resizeParams struct {
	ioParams
	sizeParams
}

func (p *resizeParams) Validate() error { return p.validate() }

func (f *Family) resizeImage(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, resizeParams{
		sizeParams: sizeParams{Width: defaultSize, Height: defaultSize},
	})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("resizing image", logging.Int("width", params.Width), logging.Int("height", params.Height))
	return NewBuilder(f.store, logger).
		Load(params.source()).
		Resize(params.Width, params.Height).
		Save(params.target()).
		Err()
}

type pasteParams struct {
	ioParams
	OverlayPath string `json:"path-to-image"`
	OverlayName string `json:"image-to-insert"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Alpha       int    `json:"alpha"`
}

func (p *pasteParams) Validate() error {
	if p.Alpha < 0 || p.Alpha > 255 {
		return fmt.Errorf("alpha must be within [0, 255], got %d", p.Alpha)
	}
	return nil
}

func (f *Family) pasteImage(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, pasteParams{Alpha: 255})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("inserting an image into another")
	return NewBuilder(f.store, logger).
		Load(params.source()).
		Paste(builder.Source{Path: params.OverlayPath, Name: params.OverlayName}, params.X, params.Y, uint8(params.Alpha)).
		Save(params.target()).
		Err()
}

type drawTextParams struct {
	ioParams
	Text          string `json:"text"`
	InputTextPath string `json:"input-text-path"`
	TextName      string `json:"text-name"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Color         string `json:"color"`
	Scale         int    `json:"scale"`
}

func (p *drawTextParams) Validate() error {
	if p.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", p.Scale)
	}
	_, err := ParseColor(p.Color)
	return err
}

func (f *Family) drawText(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, drawTextParams{Color: "white", Scale: 1})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("drawing text over image")
	b := NewBuilder(f.store, logger).Load(params.source())
	text, err := b.ResolveText(builder.TextSource{Text: params.Text, Path: params.InputTextPath, Name: params.TextName})
	if err != nil {
		b.Fail(err)
		return b.Err()
	}
	c, _ := ParseColor(params.Color)
	return b.DrawText(text, params.X, params.Y, c, params.Scale).
		Save(params.target()).
		Err()
}

type bubbleParams struct {
	Text      string `json:"text"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Fill      string `json:"fill"`
	Border    string `json:"border"`
	TextColor string `json:"text-color"`
}

type bubblesParams struct {
	ioParams
	Bubbles []bubbleParams `json:"bubbles"`
}

func (p *bubblesParams) Validate() error {
	if len(p.Bubbles) == 0 {
		return handler.RequireParam("bubbles")
	}
	for i, b := range p.Bubbles {
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("bubbles[%d]: width and height must be positive", i)
		}
		for _, value := range []string{b.Fill, b.Border, b.TextColor} {
			if value == "" {
				continue
			}
			if _, err := ParseColor(value); err != nil {
				return fmt.Errorf("bubbles[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func colorOr(value string, fallback color.Color) color.Color {
	if value == "" {
		return fallback
	}
	c, err := ParseColor(value)
	if err != nil {
		return fallback
	}
	return c
}

func (f *Family) withSpeechBubbles(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, bubblesParams{})
	if err != nil {
		return err
	}
	bubbles := make([]Bubble, 0, len(params.Bubbles))
	for _, p := range params.Bubbles {
		bubbles = append(bubbles, Bubble{
			Text:      p.Text,
			X:         p.X,
			Y:         p.Y,
			Width:     p.Width,
			Height:    p.Height,
			Fill:      colorOr(p.Fill, color.White),
			Border:    colorOr(p.Border, color.Black),
			TextColor: colorOr(p.TextColor, color.Black),
		})
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("inserting speech bubbles", logging.Int("count", len(bubbles)))
	return NewBuilder(f.store, logger).
		Load(params.source()).
		Bubbles(bubbles).
		Save(params.target()).
		Err()
}
