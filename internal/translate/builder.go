package translate

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	langpkg "mediaflow/internal/language"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

// Translator converts text between languages named in English.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Builder holds one text artifact being translated.
type Builder struct {
	*builder.Base[string]
	translator Translator
}

// NewBuilder constructs a translation builder.
func NewBuilder(store *artifact.Store, logger *slog.Logger, translator Translator) *Builder {
	return &Builder{
		Base:       builder.NewBase(artifact.KindText, store, logger, builder.TextCodec),
		translator: translator,
	}
}

// SetText replaces the current text with the resolved source.
func (b *Builder) SetText(src builder.TextSource) *Builder {
	if b.Err() != nil {
		return b
	}
	value, err := b.ResolveText(src)
	if err != nil {
		b.Fail(err)
		return b
	}
	b.Set(value)
	return b
}

// Translate replaces the current text with its translation.
func (b *Builder) Translate(ctx context.Context, source, target language.Tag) *Builder {
	if !b.Ready("translate") {
		return b
	}
	current, _ := b.Current()
	sourceName := langpkg.DisplayName(source)
	targetName := langpkg.DisplayName(target)
	b.Logger().Info("translating text",
		logging.String("source", sourceName),
		logging.String("target", targetName),
		logging.Int("chars", len(current)),
	)
	translated, err := b.translator.Translate(ctx, current, sourceName, targetName)
	if err != nil {
		b.Fail(services.Wrap(services.ErrExternalTool, TypeName, "translate-text", "translation request failed", err))
		return b
	}
	b.Set(translated)
	return b
}

// Save writes the translated text to a file and/or the cache.
func (b *Builder) Save(dst builder.Target) *Builder {
	b.Base.Save(dst)
	return b
}
