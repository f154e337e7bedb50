package text

import (
	"context"
	"fmt"
	"log/slog"

	"mediaflow/internal/artifact"
	"mediaflow/internal/builder"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	"mediaflow/internal/logging"
)

// TypeName is the activity type routed to this family.
const TypeName = "text"

// Family is the text command table.
type Family struct {
	store     *artifact.Store
	logger    *slog.Logger
	separator string
}

// New is the handler.Factory for the text family.
func New(env handler.Env) (handler.Family, error) {
	return &Family{
		store:     env.Store,
		logger:    logging.NewComponentLogger(env.Logger, TypeName),
		separator: "\n",
	}, nil
}

type defaults struct {
	Separator *string `json:"separator"`
}

// LoadDefaults accepts an activity-wide "separator" for concat-text.
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	var d defaults
	if err := params.Decode(&d); err != nil {
		return err
	}
	if d.Separator != nil {
		f.separator = *d.Separator
	}
	return nil
}

// Commands returns the text command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"write-text":  handler.CommandFunc(f.writeText),
		"concat-text": handler.CommandFunc(f.concatText),
	}
}

type ioParams struct {
	Text       string `json:"text"`
	InputPath  string `json:"input-text-path"`
	OutputPath string `json:"output-text-path"`
	Name       string `json:"text-name"`
}

func (p ioParams) target() builder.Target {
	return builder.Target{Path: p.OutputPath, Name: p.Name}
}

func (f *Family) writeText(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, ioParams{})
	if err != nil {
		return err
	}
	logging.WithContext(ctx, f.logger).Info("writing text")
	return NewBuilder(f.store, f.logger).
		SetText(builder.TextSource{Text: params.Text, Path: params.InputPath}).
		Save(params.target()).
		Err()
}

type concatParams struct {
	ioParams
	Names      []string `json:"text-names"`
	InputPaths []string `json:"input-text-paths"`
	Separator  string   `json:"separator"`
}

func (p *concatParams) Validate() error {
	if len(p.Names) == 0 && len(p.InputPaths) == 0 {
		return fmt.Errorf("text-names or input-text-paths is required")
	}
	return nil
}

func (f *Family) concatText(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, concatParams{Separator: f.separator})
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("concatenating text",
		logging.Int("paths", len(params.InputPaths)),
		logging.Int("names", len(params.Names)),
	)

	b := NewBuilder(f.store, f.logger)
	parts := make([]string, 0, len(params.InputPaths)+len(params.Names))
	for _, path := range params.InputPaths {
		value, err := b.ReadFile(path)
		if err != nil {
			continue
		}
		parts = append(parts, value)
	}
	for _, name := range params.Names {
		value, err := b.FromCache(name)
		if err != nil {
			continue
		}
		parts = append(parts, value)
	}
	return b.Concat(parts, params.Separator).Save(params.target()).Err()
}
