package coqui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mediaflow/internal/config"
	"mediaflow/internal/services"
)

// Tempo bounds accepted by the atempo filter.
const (
	MinSpeed = 0.5
	MaxSpeed = 4.0
)

// Config captures the synthesizer binaries and defaults.
type Config struct {
	Binary       string
	FFmpegBinary string
	Model        string
	CUDAEnabled  bool
}

// ConfigFrom maps the application configuration onto a Coqui Config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Binary:       cfg.Tools.TTS,
		FFmpegBinary: cfg.Tools.FFmpeg,
		Model:        cfg.Speech.Model,
		CUDAEnabled:  cfg.Speech.CUDAEnabled,
	}
}

// Request describes one synthesis call. Empty fields fall back to the
// service configuration or the model's own defaults.
type Request struct {
	Text     string
	Model    string
	Speaker  string
	Language string
	Speed    float64
}

// Service synthesizes speech with the Coqui CLI.
type Service struct {
	cfg    Config
	runner services.CommandRunner
}

// NewService constructs a Service. A nil runner uses services.ExecRunner.
func NewService(cfg Config, runner services.CommandRunner) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "tts"
	}
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if runner == nil {
		runner = services.ExecRunner
	}
	return &Service{cfg: cfg, runner: runner}
}

// Model returns the model used when a request does not name one.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Synthesize renders req to a WAV file at outPath.
func (s *Service) Synthesize(ctx context.Context, req Request, outPath string) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("synthesize: text is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return errors.New("synthesize: output path is required")
	}
	speed := req.Speed
	if speed == 0 {
		speed = 1
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("synthesize: speed %.2f outside [%.1f, %.1f]", speed, MinSpeed, MaxSpeed)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("synthesize: ensure output dir: %w", err)
	}

	if _, err := s.runner(ctx, s.cfg.Binary, s.buildArgs(req, outPath)...); err != nil {
		return fmt.Errorf("coqui tts: %w", err)
	}
	if speed == 1 {
		return nil
	}
	return s.retime(ctx, outPath, speed)
}

func (s *Service) buildArgs(req Request, outPath string) []string {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.cfg.Model
	}
	args := []string{"--text", req.Text, "--out_path", outPath}
	if model != "" {
		args = append(args, "--model_name", model)
	}
	if speaker := strings.TrimSpace(req.Speaker); speaker != "" {
		args = append(args, "--speaker_idx", speaker)
	}
	// Single-language models reject a language index.
	if lang := strings.TrimSpace(req.Language); lang != "" && strings.Contains(model, "multilingual") {
		args = append(args, "--language_idx", lang)
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--use_cuda", "true")
	}
	return args
}

func (s *Service) retime(ctx context.Context, path string, speed float64) error {
	tmp := strings.TrimSuffix(path, filepath.Ext(path)) + ".tempo.wav"
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-filter:a", "atempo=" + strconv.FormatFloat(speed, 'f', 3, 64),
		tmp,
	}
	if _, err := s.runner(ctx, s.cfg.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg atempo: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace synthesized audio: %w", err)
	}
	return nil
}
