package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	langpkg "mediaflow/internal/language"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
	"mediaflow/internal/services/coqui"
	"mediaflow/internal/services/whisperx"
)

// TypeName is the activity type routed to this family.
const TypeName = "tts"

// Family is the speech command table.
type Family struct {
	store       *artifact.Store
	logger      *slog.Logger
	workDir     string
	synth       Synthesizer
	transcriber Transcriber

	language string
	model    string
	speaker  string
}

// New is the handler.Factory backed by the Coqui CLI and WhisperX.
func New(env handler.Env) (handler.Family, error) {
	cfg := envConfig(env)
	transcriber := whisperx.NewService(whisperx.ConfigFrom(cfg))
	if env.Runner != nil {
		transcriber.WithCommandRunner(env.Runner)
	}
	return newFamily(env, cfg, coqui.NewService(coqui.ConfigFrom(cfg), env.Runner), transcriber), nil
}

// NewFactory returns a factory using the given collaborators.
func NewFactory(synth Synthesizer, transcriber Transcriber) handler.Factory {
	return func(env handler.Env) (handler.Family, error) {
		return newFamily(env, envConfig(env), synth, transcriber), nil
	}
}

func envConfig(env handler.Env) *config.Config {
	if env.Config != nil {
		return env.Config
	}
	defaults := config.Default()
	return &defaults
}

func newFamily(env handler.Env, cfg *config.Config, synth Synthesizer, transcriber Transcriber) *Family {
	return &Family{
		store:       env.Store,
		logger:      logging.NewComponentLogger(env.Logger, TypeName),
		workDir:     env.WorkDir,
		synth:       synth,
		transcriber: transcriber,
		language:    cfg.Speech.Language,
		model:       cfg.Speech.Model,
		speaker:     cfg.Speech.Speaker,
	}
}

type defaults struct {
	Language string `json:"language"`
	Model    string `json:"model-path"`
	Speaker  string `json:"speaker"`
}

// LoadDefaults applies "language", "model-path" and "speaker".
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	d := defaults{Language: f.language, Model: f.model, Speaker: f.speaker}
	if err := params.Decode(&d); err != nil {
		return err
	}
	if strings.TrimSpace(d.Model) == "" {
		return services.Wrap(services.ErrConfiguration, TypeName, "load defaults", "no speech model configured", nil)
	}
	if _, err := langpkg.Resolve(d.Language); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	f.language = langpkg.Normalize(d.Language)
	f.model = strings.TrimSpace(d.Model)
	f.speaker = strings.TrimSpace(d.Speaker)
	f.logger.Debug("speech defaults loaded",
		logging.String("model", f.model),
		logging.String("language", f.language),
	)
	return nil
}

// Commands returns the speech command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"generate-speech":     handler.CommandFunc(f.generateSpeech),
		"create-silence":      handler.CommandFunc(f.createSilence),
		"combine-audios":      handler.CommandFunc(f.combineAudios),
		"generate-transcript": handler.CommandFunc(f.generateTranscript),
	}
}

type saveParams struct {
	OutputPath string `json:"output-audio-path"`
	Name       string `json:"audio-name"`
}

func (p saveParams) target() builder.Target {
	return builder.Target{Path: p.OutputPath, Name: p.Name}
}

type speechParams struct {
	saveParams
	Text      string  `json:"text"`
	InputPath string  `json:"input-text-path"`
	TextName  string  `json:"text-name"`
	Speed     float64 `json:"speech-speed"`
	Energy    float64 `json:"speech-energy"`
	Speaker   string  `json:"speech-speaker"`
}

func (p *speechParams) Validate() error {
	if p.Speed < coqui.MinSpeed || p.Speed > coqui.MaxSpeed {
		return fmt.Errorf("speech-speed must be within [%.1f, %.1f], got %v", coqui.MinSpeed, coqui.MaxSpeed, p.Speed)
	}
	if p.Energy < 0 {
		return fmt.Errorf("speech-energy must not be negative, got %v", p.Energy)
	}
	return nil
}

func (f *Family) generateSpeech(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, speechParams{Speed: 1, Energy: 1, Speaker: f.speaker})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("generating speech")
	req := coqui.Request{Model: f.model, Speaker: params.Speaker, Language: f.language, Speed: params.Speed}
	return NewBuilder(f.store, logger, f.workDir).
		Speak(ctx, f.synth, builder.TextSource{Text: params.Text, Path: params.InputPath, Name: params.TextName}, req, params.Energy).
		Save(params.target()).
		Err()
}

type silenceParams struct {
	saveParams
	Duration float64 `json:"duration"`
}

func (p *silenceParams) Validate() error {
	if p.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", p.Duration)
	}
	return nil
}

func (f *Family) createSilence(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, silenceParams{Duration: 1})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("creating silence", logging.Float64("seconds", params.Duration))
	return NewBuilder(f.store, logger, f.workDir).
		Silence(params.Duration).
		Save(params.target()).
		Err()
}

type combineParams struct {
	saveParams
	Paths []string `json:"input-audio-paths"`
	Names []string `json:"audio-names"`
}

func (f *Family) combineAudios(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, combineParams{})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("combining audios")
	return NewBuilder(f.store, logger, f.workDir).
		Combine(params.Paths, params.Names).
		Save(params.target()).
		Err()
}

type transcriptParams struct {
	InputPath  string `json:"input-audio-path"`
	AudioName  string `json:"audio-name"`
	OutputPath string `json:"output-text-path"`
	TextName   string `json:"text-name"`
	Language   string `json:"language"`
}

func (f *Family) generateTranscript(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, transcriptParams{Language: f.language})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("generating transcript from audio")
	return NewBuilder(f.store, logger, f.workDir).
		Load(builder.Source{Path: params.InputPath, Name: params.AudioName}).
		Transcript(ctx, f.transcriber, params.Language, builder.Target{Path: params.OutputPath, Name: params.TextName}).
		Err()
}
