package text

import (
	"log/slog"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
)

// Builder holds one text artifact.
type Builder struct {
	*builder.Base[string]
}

// NewBuilder constructs a text builder backed by store.
func NewBuilder(store *artifact.Store, logger *slog.Logger) *Builder {
	return &Builder{Base: builder.NewBase(artifact.KindText, store, logger, builder.TextCodec)}
}

// Load resolves the current text from a file or the cache.
func (b *Builder) Load(src builder.Source) *Builder {
	b.Base.Load(src)
	return b
}

// Save writes the current text to a file and/or the cache.
func (b *Builder) Save(dst builder.Target) *Builder {
	b.Base.Save(dst)
	return b
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

// Concat joins the non-empty parts with separator.
func (b *Builder) Concat(parts []string, separator string) *Builder {
	if b.Err() != nil {
		return b
	}
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		b.Logger().Error("no text parts to concatenate")
		b.Fail(builder.ErrNoText)
		return b
	}
	b.Set(strings.Join(kept, separator))
	return b
}
