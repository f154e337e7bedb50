package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/logging"
	"mediaflow/internal/media/audio"
	"mediaflow/internal/media/srt"
	"mediaflow/internal/services"
	"mediaflow/internal/services/coqui"
	"mediaflow/internal/services/whisperx"
)

// ErrNoSegments reports a combine with nothing loadable.
var ErrNoSegments = errors.New("no valid audio segments found to merge")

// Synthesizer renders text to a WAV file.
type Synthesizer interface {
	Synthesize(ctx context.Context, req coqui.Request, outPath string) error
}

// Transcriber produces word-aligned transcripts of an audio or video file.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir, language string) (whisperx.Transcript, error)
}

// AudioCodec reads and writes WAV files.
var AudioCodec = builder.Codec[*audio.Clip]{
	Read: audio.Read,
	Write: func(path string, clip *audio.Clip) error {
		return clip.Write(path)
	},
}

// Builder holds one audio artifact.
type Builder struct {
	*builder.Base[*audio.Clip]
	workDir string
}

// NewBuilder constructs an audio builder. Intermediate files go to workDir.
func NewBuilder(store *artifact.Store, logger *slog.Logger, workDir string) *Builder {
	return &Builder{
		Base:    builder.NewBase(artifact.KindAudio, store, logger, AudioCodec),
		workDir: workDir,
	}
}

// Load resolves the current clip from a file or the cache.
func (b *Builder) Load(src builder.Source) *Builder {
	b.Base.Load(src)
	return b
}

// Save writes the current clip to a file and/or the cache.
func (b *Builder) Save(dst builder.Target) *Builder {
	b.Base.Save(dst)
	return b
}

// Speak synthesizes text and makes the result the current clip. Energy
// scales the amplitude; 1 leaves it untouched.
func (b *Builder) Speak(ctx context.Context, synth Synthesizer, src builder.TextSource, req coqui.Request, energy float64) *Builder {
	if b.Err() != nil {
		return b
	}
	text, err := b.ResolveText(src)
	if err != nil {
		b.Fail(err)
		return b
	}
	req.Text = text

	tmp, err := fileutil.TempPath(b.workDir, "speech-*.wav")
	if err != nil {
		b.Fail(err)
		return b
	}
	defer os.Remove(tmp)

	b.Logger().Info("synthesizing speech",
		logging.Int("chars", len(text)),
		logging.String("speaker", req.Speaker),
		logging.Float64("speed", req.Speed),
	)
	started := time.Now()
	if err := synth.Synthesize(ctx, req, tmp); err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "generate-speech", "speech synthesis failed", err))
		return b
	}
	clip, err := audio.Read(tmp)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "generate-speech", "synthesizer produced unreadable audio", err))
		return b
	}
	if energy != 1 {
		clip = clip.Gain(energy)
	}
	b.Logger().Info("speech synthesized",
		logging.Duration("audio_duration", clip.Duration()),
		logging.Duration("elapsed", time.Since(started)),
	)
	b.Set(clip)
	return b
}

// Silence makes a silent clip of seconds the current clip.
func (b *Builder) Silence(seconds float64) *Builder {
	if b.Err() != nil {
		return b
	}
	clip, err := audio.Silence(seconds, audio.DefaultSampleRate, audio.DefaultChannels)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Set(clip)
	return b
}

// Combine concatenates clips from paths, then from cache names. Entries that
// cannot be loaded are logged and skipped.
func (b *Builder) Combine(paths, names []string) *Builder {
	if b.Err() != nil {
		return b
	}
	var clips []*audio.Clip
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		clip, err := b.ReadFile(path)
		if err != nil {
			continue
		}
		clips = append(clips, clip)
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		clip, err := b.FromCache(name)
		if err != nil {
			continue
		}
		clips = append(clips, clip)
	}
	if len(clips) == 0 {
		b.Logger().Error("no valid audio segments found to merge",
			logging.Int("paths", len(paths)),
			logging.Int("names", len(names)),
		)
		b.Fail(ErrNoSegments)
		return b
	}
	combined, err := audio.Concat(clips...)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Logger().Info("audio combined",
		logging.Int("segments", len(clips)),
		logging.Duration("audio_duration", combined.Duration()),
	)
	b.Set(combined)
	return b
}

// Transcript transcribes the current clip and saves a word-per-cue SRT to
// dst. The current clip is unchanged.
func (b *Builder) Transcript(ctx context.Context, transcriber Transcriber, language string, dst builder.Target) *Builder {
	if !b.Ready("generate-transcript") {
		return b
	}
	clip, _ := b.Current()
	tmpDir, err := os.MkdirTemp(b.tempRoot(), "transcript-")
	if err != nil {
		b.Fail(fmt.Errorf("create transcript work dir: %w", err))
		return b
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "speech.wav")
	if err := clip.Write(wavPath); err != nil {
		b.Fail(err)
		return b
	}
	b.Logger().Info("transcribing audio", logging.Duration("audio_duration", clip.Duration()))
	transcript, err := transcriber.Transcribe(ctx, wavPath, tmpDir, language)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "generate-transcript", "transcription failed", err))
		return b
	}
	cues := srt.FromWords(srt.SegmentWords(transcript.SRTSegments()))
	b.Logger().Info("transcript ready", logging.Int("words", len(cues)))
	if err := b.SaveText(srt.Format(cues), dst); err != nil {
		b.Fail(err)
	}
	return b
}

func (b *Builder) tempRoot() string {
	if b.workDir == "" {
		return os.TempDir()
	}
	if err := os.MkdirAll(b.workDir, 0o755); err != nil {
		return os.TempDir()
	}
	return b.workDir
}
