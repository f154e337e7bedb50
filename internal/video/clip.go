package video

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"mediaflow/internal/config"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/media/ffprobe"
	"mediaflow/internal/services"
)

// ErrNoVideoStream reports a file that ffprobe could read but which carries
// no video.
var ErrNoVideoStream = errors.New("no video stream found")

// Clip is a rendered video file and its probed properties.
type Clip struct {
	Path     string
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// DurationTime returns the clip length as a time.Duration.
func (c *Clip) DurationTime() time.Duration {
	return time.Duration(c.Duration * float64(time.Second))
}

// Settings control how FFmpeg renders new clips.
type Settings struct {
	Codec string
	FPS   int
}

// Tools runs FFmpeg and ffprobe and places intermediate files in WorkDir.
type Tools struct {
	FFmpeg  string
	FFprobe string
	WorkDir string
	Run     services.CommandRunner
}

// ToolsFrom builds Tools from the configured binaries.
func ToolsFrom(cfg *config.Config, workDir string, run services.CommandRunner) Tools {
	tools := Tools{WorkDir: workDir, Run: run}
	if cfg != nil {
		tools.FFmpeg = cfg.Tools.FFmpeg
		tools.FFprobe = cfg.Tools.FFprobe
	}
	return tools
}

func (t Tools) runner() services.CommandRunner {
	if t.Run == nil {
		return services.ExecRunner
	}
	return t.Run
}

func (t Tools) ffmpegBinary() string {
	if binary := strings.TrimSpace(t.FFmpeg); binary != "" {
		return binary
	}
	return "ffmpeg"
}

// Probe inspects path and returns it as a Clip.
func (t Tools) Probe(ctx context.Context, path string) (*Clip, error) {
	result, err := ffprobe.Inspect(ctx, t.runner(), t.FFprobe, path)
	if err != nil {
		return nil, err
	}
	if result.VideoStreamCount() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoVideoStream)
	}
	width, height, _ := result.VideoSize()
	return &Clip{
		Path:     path,
		Duration: cleanDuration(result.DurationSeconds()),
		Width:    width,
		Height:   height,
		HasAudio: result.AudioStreamCount() > 0,
	}, nil
}

// AudioDuration returns the length in seconds of an audio file.
func (t Tools) AudioDuration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, t.runner(), t.FFprobe, path)
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, fmt.Errorf("%s: no audio stream found", path)
	}
	return cleanDuration(result.DurationSeconds()), nil
}

// TempFile reserves a file in the work directory.
func (t Tools) TempFile(pattern string) (string, error) {
	return fileutil.TempPath(t.WorkDir, pattern)
}

func (t Tools) tempDir(pattern string) (string, error) {
	root := t.WorkDir
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return os.MkdirTemp(root, pattern)
}

func (t Tools) ffmpeg(ctx context.Context, operation string, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	if _, err := t.runner()(ctx, t.ffmpegBinary(), full...); err != nil {
		return services.Wrap(services.ErrExternalTool, TypeName, operation, "ffmpeg failed", err)
	}
	return nil
}

func cleanDuration(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(cleanDuration(seconds), 'f', 3, 64)
}
