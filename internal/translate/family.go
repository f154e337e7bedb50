package translate

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	langpkg "mediaflow/internal/language"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
	"mediaflow/internal/services/llm"
)

// TypeName is the activity type routed to this family.
const TypeName = "gtrans"

// Family is the translation command table.
type Family struct {
	store      *artifact.Store
	logger     *slog.Logger
	translator Translator
	source     string
	target     string
}

// New is the handler.Factory for the translation family backed by the
// configured LLM.
func New(env handler.Env) (handler.Family, error) {
	cfg := env.Config
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	llmCfg := cfg.TranslationLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	return newFamily(env, cfg, client), nil
}

// NewFactory returns a factory that uses translator instead of the LLM.
func NewFactory(translator Translator) handler.Factory {
	return func(env handler.Env) (handler.Family, error) {
		cfg := env.Config
		if cfg == nil {
			defaults := config.Default()
			cfg = &defaults
		}
		return newFamily(env, cfg, translator), nil
	}
}

func newFamily(env handler.Env, cfg *config.Config, translator Translator) *Family {
	return &Family{
		store:      env.Store,
		logger:     logging.NewComponentLogger(env.Logger, TypeName),
		translator: translator,
		source:     cfg.Translation.SourceLanguage,
		target:     cfg.Translation.TargetLanguage,
	}
}

type languages struct {
	Source string `json:"lang-source"`
	Target string `json:"lang-target"`
}

func (l languages) resolve() (language.Tag, language.Tag, error) {
	source, err := langpkg.Resolve(l.Source)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("lang-source: %w", err)
	}
	target, err := langpkg.Resolve(l.Target)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("lang-target: %w", err)
	}
	return source, target, nil
}

// LoadDefaults applies activity-wide "lang-source" and "lang-target".
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	d := languages{Source: f.source, Target: f.target}
	if err := params.Decode(&d); err != nil {
		return err
	}
	if _, _, err := d.resolve(); err != nil {
		return err
	}
	if c, ok := f.translator.(interface{ Configured() bool }); ok && !c.Configured() {
		return services.Wrap(services.ErrConfiguration, TypeName, "load defaults",
			"translation requires llm.api_key or OPENROUTER_API_KEY", llm.ErrMissingAPIKey)
	}
	f.source, f.target = d.Source, d.Target
	return nil
}

// Commands returns the translation command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"translate-text": handler.CommandFunc(f.translateText),
	}
}

type translateParams struct {
	languages
	Text       string `json:"text"`
	InputPath  string `json:"input-text-path"`
	OutputPath string `json:"output-text-path"`
	Name       string `json:"text-name"`
}

func (p *translateParams) Validate() error {
	_, _, err := p.resolve()
	return err
}

func (f *Family) translateText(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, translateParams{
		languages: languages{Source: f.source, Target: f.target},
	})
	if err != nil {
		return err
	}
	source, target, _ := params.resolve()
	if source == target {
		logging.WithContext(ctx, f.logger).Warn("source and target languages match; copying text",
			logging.String("language", langpkg.ISO2(source)),
		)
	}
	b := NewBuilder(f.store, logging.WithContext(ctx, f.logger), f.translator).
		SetText(builder.TextSource{Text: params.Text, Path: params.InputPath, Name: params.Name})
	if source != target {
		b.Translate(ctx, source, target)
	}
	return b.Save(builder.Target{Path: params.OutputPath, Name: params.Name}).Err()
}
