package video

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	"mediaflow/internal/imaging"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
	"mediaflow/internal/services/drapto"
	"mediaflow/internal/services/whisperx"
	"mediaflow/internal/speech"
)

// TypeName is the activity type routed to this family.
const TypeName = "moviepy"

// Family is the video command table.
type Family struct {
	store       *artifact.Store
	logger      *slog.Logger
	tools       Tools
	transcriber speech.Transcriber
	encoder     drapto.Encoder

	settings Settings
	font     string
	language string
}

// New is the handler.Factory backed by FFmpeg, WhisperX, and Drapto.
func New(env handler.Env) (handler.Family, error) {
	cfg := envConfig(env)
	transcriber := whisperx.NewService(whisperx.ConfigFrom(cfg))
	if env.Runner != nil {
		transcriber.WithCommandRunner(env.Runner)
	}
	return newFamily(env, cfg, transcriber, drapto.NewLibrary()), nil
}

// NewFactory returns a factory using the given collaborators. FFmpeg and
// ffprobe still run through env.Runner.
func NewFactory(transcriber speech.Transcriber, encoder drapto.Encoder) handler.Factory {
	return func(env handler.Env) (handler.Family, error) {
		return newFamily(env, envConfig(env), transcriber, encoder), nil
	}
}

func envConfig(env handler.Env) *config.Config {
	if env.Config != nil {
		return env.Config
	}
	defaults := config.Default()
	return &defaults
}

func newFamily(env handler.Env, cfg *config.Config, transcriber speech.Transcriber, encoder drapto.Encoder) *Family {
	return &Family{
		store:       env.Store,
		logger:      logging.NewComponentLogger(env.Logger, TypeName),
		tools:       ToolsFrom(cfg, env.WorkDir, env.Runner),
		transcriber: transcriber,
		encoder:     encoder,
		settings:    Settings{Codec: cfg.Video.Codec, FPS: cfg.Video.FPS},
		font:        cfg.Video.Font,
		language:    cfg.Transcription.Language,
	}
}

type defaults struct {
	Codec string `json:"codec"`
	FPS   int    `json:"fps"`
	Font  string `json:"font"`
}

// LoadDefaults applies "codec", "fps" and "font".
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	d := defaults{Codec: f.settings.Codec, FPS: f.settings.FPS, Font: f.font}
	if err := params.Decode(&d); err != nil {
		return err
	}
	if strings.TrimSpace(d.Codec) == "" {
		return services.Wrap(services.ErrConfiguration, TypeName, "load defaults", "no video codec configured", nil)
	}
	if d.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", d.FPS)
	}
	f.settings = Settings{Codec: strings.TrimSpace(d.Codec), FPS: d.FPS}
	f.font = strings.TrimSpace(d.Font)
	f.logger.Debug("video defaults loaded",
		logging.String("codec", f.settings.Codec),
		logging.Int("fps", f.settings.FPS),
	)
	return nil
}

// Commands returns the video command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"generate-video":     handler.CommandFunc(f.generateVideo),
		"combine-videos":     handler.CommandFunc(f.combineVideos),
		"apply-text-overlay": handler.CommandFunc(f.applyTextOverlay),
		"apply-subtitle":     handler.CommandFunc(f.applySubtitle),
		"generate-subtitle":  handler.CommandFunc(f.generateSubtitle),
		"encode-video":       handler.CommandFunc(f.encodeVideo),
	}
}

func (f *Family) newBuilder(ctx context.Context, logger *slog.Logger) *Builder {
	return NewBuilder(ctx, f.store, logger, f.tools, f.settings)
}

type ioParams struct {
	InputPath  string `json:"input-video-path"`
	OutputPath string `json:"output-video-path"`
	Name       string `json:"video-name"`
}

func (p ioParams) source() builder.Source {
	return builder.Source{Path: p.InputPath, Name: p.Name}
}

func (p ioParams) target() builder.Target {
	return builder.Target{Path: p.OutputPath, Name: p.Name}
}

type generateParams struct {
	ioParams
	ImagePath string `json:"input-image-path"`
	ImageName string `json:"image-name"`
	AudioPath string `json:"input-audio-path"`
	AudioName string `json:"audio-name"`
}

func (p *generateParams) Validate() error {
	if strings.TrimSpace(p.ImagePath) == "" && strings.TrimSpace(p.ImageName) == "" {
		return handler.RequireParam("input-image-path or image-name")
	}
	if strings.TrimSpace(p.AudioPath) == "" && strings.TrimSpace(p.AudioName) == "" {
		return handler.RequireParam("input-audio-path or audio-name")
	}
	return nil
}

func (f *Family) generateVideo(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, generateParams{})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("generating video from image and audio")
	return f.newBuilder(ctx, logger).
		Still(
			builder.Source{Path: params.ImagePath, Name: params.ImageName},
			builder.Source{Path: params.AudioPath, Name: params.AudioName},
		).
		Save(params.target()).
		Err()
}

type combineParams struct {
	OutputPath string   `json:"output-video-path"`
	Name       string   `json:"video-name"`
	Paths      []string `json:"input-video-paths"`
	Names      []string `json:"video-names"`
}

func (f *Family) combineVideos(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, combineParams{})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("combining videos")
	return f.newBuilder(ctx, logger).
		Combine(params.Paths, params.Names).
		Save(builder.Target{Path: params.OutputPath, Name: params.Name}).
		Err()
}

type styleParams struct {
	Font            string  `json:"font"`
	FontSize        int     `json:"font-size"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"background-color"`
	Opacity         float64 `json:"background-opacity"`
	SizeBehavior    string  `json:"size-behavior"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

func (f *Family) defaultStyle() styleParams {
	return styleParams{
		Font:            f.font,
		FontSize:        32,
		Color:           "white",
		BackgroundColor: "black",
		Opacity:         0.5,
		SizeBehavior:    SizeFitText,
	}
}

func (p styleParams) validate() error {
	if p.FontSize <= 0 {
		return fmt.Errorf("font-size must be positive, got %d", p.FontSize)
	}
	if p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("background-opacity must be within [0, 1], got %v", p.Opacity)
	}
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("width and height must not be negative, got %dx%d", p.Width, p.Height)
	}
	switch p.SizeBehavior {
	case SizeFitText, SizeFull:
	default:
		return fmt.Errorf("size-behavior must be %q or %q, got %q", SizeFitText, SizeFull, p.SizeBehavior)
	}
	if _, err := imaging.ParseColor(p.Color); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if _, err := imaging.ParseColor(p.BackgroundColor); err != nil {
		return fmt.Errorf("background-color: %w", err)
	}
	return nil
}

// overlay converts validated style parameters into an Overlay.
func (p styleParams) overlay() Overlay {
	fg, _ := imaging.ParseColor(p.Color)
	bg, _ := imaging.ParseColor(p.BackgroundColor)
	return Overlay{
		Font:         p.Font,
		FontSize:     p.FontSize,
		Color:        opaque(fg),
		Background:   opaque(bg),
		Opacity:      p.Opacity,
		SizeBehavior: p.SizeBehavior,
		X:            p.X,
		Y:            p.Y,
		Width:        p.Width,
		Height:       p.Height,
	}
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 0xff
	return c
}

type overlayParams struct {
	ioParams
	styleParams
	Text      string  `json:"text"`
	StartTime float64 `json:"start-time"`
	StopTime  float64 `json:"stop-time"`
}

func (p *overlayParams) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return handler.RequireParam("text")
	}
	if p.StartTime < 0 || p.StopTime < p.StartTime {
		return fmt.Errorf("start-time and stop-time must satisfy 0 <= start <= stop, got %v..%v", p.StartTime, p.StopTime)
	}
	return p.validate()
}

func (f *Family) applyTextOverlay(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, overlayParams{styleParams: f.defaultStyle(), StopTime: 1})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("applying text overlay",
		logging.Float64("start", params.StartTime),
		logging.Float64("stop", params.StopTime),
	)
	overlay := params.overlay()
	overlay.Text = params.Text
	overlay.Start = params.StartTime
	overlay.Stop = params.StopTime
	return f.newBuilder(ctx, logger).
		Load(params.source()).
		Overlay(overlay).
		Save(params.target()).
		Err()
}

type subtitleParams struct {
	ioParams
	styleParams
	TextPath string `json:"input-text-path"`
	TextName string `json:"text-name"`
}

func (p *subtitleParams) Validate() error {
	if strings.TrimSpace(p.TextPath) == "" && strings.TrimSpace(p.TextName) == "" {
		return handler.RequireParam("input-text-path or text-name")
	}
	return p.validate()
}

func (f *Family) applySubtitle(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, subtitleParams{styleParams: f.defaultStyle()})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("applying subtitles to video")
	return f.newBuilder(ctx, logger).
		Load(params.source()).
		Subtitles(builder.TextSource{Path: params.TextPath, Name: params.TextName}, params.overlay()).
		Save(params.target()).
		Err()
}

type generateSubtitleParams struct {
	InputPath  string `json:"input-video-path"`
	VideoName  string `json:"video-name"`
	OutputPath string `json:"output-text-path"`
	TextName   string `json:"text-name"`
	Language   string `json:"language"`
}

func (f *Family) generateSubtitle(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, generateSubtitleParams{Language: f.language})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("generating subtitles from video")
	return f.newBuilder(ctx, logger).
		Load(builder.Source{Path: params.InputPath, Name: params.VideoName}).
		Subtitle(f.transcriber, params.Language, builder.Target{Path: params.OutputPath, Name: params.TextName}).
		Err()
}

type encodeParams struct {
	ioParams
	OutputDir string `json:"output-dir"`
}

func (f *Family) encodeVideo(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, encodeParams{})
	if err != nil {
		return err
	}
	if f.encoder == nil {
		return services.Wrap(services.ErrConfiguration, TypeName, action.Command, "no encoder available", errors.New("encoder is nil"))
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("encoding video with drapto")
	b := f.newBuilder(ctx, logger).
		Load(params.source()).
		Encode(f.encoder, params.OutputDir)
	if params.OutputPath == "" && params.Name == "" {
		return b.Err()
	}
	return b.Save(params.target()).Err()
}
