package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/imaging"
	"mediaflow/internal/logging"
	"mediaflow/internal/media/audio"
	"mediaflow/internal/media/srt"
	"mediaflow/internal/services"
	"mediaflow/internal/services/drapto"
	"mediaflow/internal/speech"
)

var (
	// ErrNoClips reports a combine with nothing loadable.
	ErrNoClips = errors.New("no valid video clips found to combine")
	// ErrNoStillInput reports generate-video without an image or audio source.
	ErrNoStillInput = errors.New("generate-video needs an image and an audio source")
)

// Builder holds one video clip. Codec reads probe files in place and codec
// writes export through FFmpeg, so the builder is bound to ctx.
type Builder struct {
	*builder.Base[*Clip]
	ctx      context.Context
	tools    Tools
	settings Settings
}

// NewBuilder constructs a video builder.
func NewBuilder(ctx context.Context, store *artifact.Store, logger *slog.Logger, tools Tools, settings Settings) *Builder {
	codec := builder.Codec[*Clip]{
		Read: func(path string) (*Clip, error) {
			return tools.Probe(ctx, path)
		},
		Write: func(path string, clip *Clip) error {
			return tools.Export(ctx, clip, path, settings.Codec)
		},
	}
	return &Builder{
		Base:     builder.NewBase(artifact.KindVideo, store, logger, codec),
		ctx:      ctx,
		tools:    tools,
		settings: settings,
	}
}

// Load resolves the current clip from a file or the cache.
func (b *Builder) Load(src builder.Source) *Builder {
	b.Base.Load(src)
	return b
}

// Save exports the current clip to a file and/or the cache.
func (b *Builder) Save(dst builder.Target) *Builder {
	b.Base.Save(dst)
	return b
}

// Still renders an image with an audio track. The clip lasts as long as the
// audio.
func (b *Builder) Still(img, sound builder.Source) *Builder {
	if b.Err() != nil {
		return b
	}
	var cleanup []string
	defer func() {
		for _, path := range cleanup {
			os.Remove(path)
		}
	}()

	imagePath, staged, err := b.stageImage(img)
	if staged {
		cleanup = append(cleanup, imagePath)
	}
	if err != nil {
		b.Fail(err)
		return b
	}
	audioPath, duration, staged, err := b.stageAudio(sound)
	if staged {
		cleanup = append(cleanup, audioPath)
	}
	if err != nil {
		b.Fail(err)
		return b
	}

	b.Logger().Info("rendering still image with audio",
		logging.String("image", imagePath),
		logging.String("audio", audioPath),
		logging.Float64("seconds", duration),
	)
	clip, err := b.tools.Still(b.ctx, imagePath, audioPath, duration, b.settings)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Set(clip)
	return b
}

func (b *Builder) stageImage(src builder.Source) (string, bool, error) {
	if path := strings.TrimSpace(src.Path); path != "" {
		if _, err := os.Stat(path); err != nil {
			b.Logger().Error("image file not found", logging.String(logging.FieldPath, path), logging.Error(err))
			return "", false, err
		}
		return path, false, nil
	}
	name := strings.TrimSpace(src.Name)
	if name == "" {
		b.Logger().Error("no image source specified")
		return "", false, ErrNoStillInput
	}
	img, err := artifact.Lookup[image.Image](b.Store(), artifact.KindImage, name)
	if err != nil {
		b.Logger().Warn("image cache lookup failed", logging.String(logging.FieldCacheKey, artifact.Key(artifact.KindImage, name)), logging.Error(err))
		return "", false, err
	}
	path, err := b.tools.TempFile("still-*.png")
	if err != nil {
		return "", false, err
	}
	return path, true, imaging.WriteImage(path, img)
}

func (b *Builder) stageAudio(src builder.Source) (string, float64, bool, error) {
	if path := strings.TrimSpace(src.Path); path != "" {
		duration, err := b.tools.AudioDuration(b.ctx, path)
		if err != nil {
			b.Logger().Error("audio probe failed", logging.String(logging.FieldPath, path), logging.Error(err))
			return "", 0, false, err
		}
		return path, duration, false, nil
	}
	name := strings.TrimSpace(src.Name)
	if name == "" {
		b.Logger().Error("no audio source specified")
		return "", 0, false, ErrNoStillInput
	}
	clip, err := artifact.Lookup[*audio.Clip](b.Store(), artifact.KindAudio, name)
	if err != nil {
		b.Logger().Warn("audio cache lookup failed", logging.String(logging.FieldCacheKey, artifact.Key(artifact.KindAudio, name)), logging.Error(err))
		return "", 0, false, err
	}
	path, err := b.tools.TempFile("still-*.wav")
	if err != nil {
		return "", 0, false, err
	}
	return path, clip.Duration().Seconds(), true, clip.Write(path)
}

// Combine concatenates clips from paths, then from cache names. Entries that
// cannot be loaded are logged and skipped.
func (b *Builder) Combine(paths, names []string) *Builder {
	if b.Err() != nil {
		return b
	}
	var clips []*Clip
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if clip, err := b.ReadFile(path); err == nil {
			clips = append(clips, clip)
		}
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if clip, err := b.FromCache(name); err == nil {
			clips = append(clips, clip)
		}
	}
	if len(clips) == 0 {
		b.Logger().Error("no valid video clips found to combine",
			logging.Int("paths", len(paths)),
			logging.Int("names", len(names)),
		)
		b.Fail(ErrNoClips)
		return b
	}
	combined, err := b.tools.Concat(b.ctx, clips, b.settings)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Logger().Info("videos combined",
		logging.Int("clips", len(clips)),
		logging.Duration("video_duration", combined.DurationTime()),
	)
	b.Set(combined)
	return b
}

// Overlay burns one text box into the current clip.
func (b *Builder) Overlay(overlay Overlay) *Builder {
	if !b.Ready("apply-text-overlay") {
		return b
	}
	return b.burn([]Overlay{overlay}, "apply-text-overlay")
}

// Subtitles burns one overlay per SRT cue into the current clip, styled like
// style. A subtitle file without cues leaves the clip unchanged.
func (b *Builder) Subtitles(src builder.TextSource, style Overlay) *Builder {
	if !b.Ready("apply-subtitle") {
		return b
	}
	text, err := b.ResolveText(src)
	if err != nil {
		b.Fail(err)
		return b
	}
	cues := srt.Parse([]byte(text))
	if len(cues) == 0 {
		b.Logger().Warn("subtitle file has no cues", logging.String(logging.FieldPath, src.Path))
		return b
	}
	overlays := make([]Overlay, 0, len(cues))
	for _, cue := range cues {
		overlay := style
		overlay.Text = cue.Text
		overlay.Start = cue.Start
		overlay.Stop = cue.End
		overlays = append(overlays, overlay)
	}
	b.Logger().Info("applying subtitles", logging.Int("cues", len(cues)))
	return b.burn(overlays, "apply-subtitle")
}

func (b *Builder) burn(overlays []Overlay, operation string) *Builder {
	clip, _ := b.Current()
	burned, err := b.tools.Burn(b.ctx, clip, overlays, b.settings, operation)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Set(burned)
	return b
}

// Subtitle transcribes the current clip's audio and saves a segment SRT to
// dst. The current clip is unchanged.
func (b *Builder) Subtitle(transcriber speech.Transcriber, language string, dst builder.Target) *Builder {
	if !b.Ready("generate-subtitle") {
		return b
	}
	clip, _ := b.Current()
	if !clip.HasAudio {
		b.Fail(fmt.Errorf("generate-subtitle: %s has no audio track", clip.Path))
		return b
	}
	tmpDir, err := b.tools.tempDir("subtitle-")
	if err != nil {
		b.Fail(fmt.Errorf("create subtitle work dir: %w", err))
		return b
	}
	defer os.RemoveAll(tmpDir)

	b.Logger().Info("transcribing video audio", logging.Duration("video_duration", clip.DurationTime()))
	transcript, err := transcriber.Transcribe(b.ctx, clip.Path, tmpDir, language)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "generate-subtitle", "transcription failed", err))
		return b
	}
	cues := srt.FromSegments(transcript.SRTSegments())
	b.Logger().Info("subtitles ready", logging.Int("cues", len(cues)))
	if err := b.SaveText(srt.Format(cues), dst); err != nil {
		b.Fail(err)
	}
	return b
}

// Encode transcodes the current clip with encoder into outputDir and makes
// the encoded file the current clip.
func (b *Builder) Encode(encoder drapto.Encoder, outputDir string) *Builder {
	if !b.Ready("encode-video") {
		return b
	}
	clip, _ := b.Current()
	if strings.TrimSpace(outputDir) == "" {
		outputDir = b.tools.WorkDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		b.Fail(fmt.Errorf("create output directory: %w", err))
		return b
	}
	b.Logger().Info("encoding video",
		logging.String("input", clip.Path),
		logging.String("output_dir", outputDir),
	)
	output, err := encoder.Encode(b.ctx, clip.Path, outputDir, newProgressLogger(b.Logger()).handle)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "encode-video", "drapto encode failed", err))
		return b
	}
	encoded, err := b.tools.Probe(b.ctx, output)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Logger().Info("video encoded", logging.String(logging.FieldPath, output))
	b.Set(encoded)
	return b
}

// progressLogger reports Drapto progress at stage changes and every
// progressStep percent.
type progressLogger struct {
	logger *slog.Logger
	stage  string
	bucket int
}

const progressStep = 25

func newProgressLogger(logger *slog.Logger) *progressLogger {
	return &progressLogger{logger: logger, bucket: -1}
}

func (p *progressLogger) handle(update drapto.ProgressUpdate) {
	switch update.Type {
	case drapto.EventTypeWarning:
		p.logger.Warn("drapto warning", logging.String("message", update.Message))
		return
	case drapto.EventTypeError:
		p.logger.Error("drapto error", logging.String("stage", update.Stage), logging.String("message", update.Message))
		return
	case drapto.EventTypeStageProgress, drapto.EventTypeEncodingProgress:
	default:
		p.logger.Debug("drapto event", logging.String("type", string(update.Type)), logging.String("stage", update.Stage))
		return
	}
	bucket := int(update.Percent) / progressStep
	if update.Stage == p.stage && bucket == p.bucket {
		return
	}
	p.stage = update.Stage
	p.bucket = bucket
	p.logger.Info("encoding progress",
		logging.String("stage", update.Stage),
		logging.Float64("percent", update.Percent),
		logging.Duration("eta", update.ETA),
	)
}
