package handler

import (
	"context"
	"fmt"

	"mediaflow/internal/descriptor"
	"mediaflow/internal/services"
)

// Command is one bound operation in a family's command table.
type Command interface {
	Execute(ctx context.Context, action descriptor.Action) error
}

// CommandFunc adapts a function to Command.
type CommandFunc func(ctx context.Context, action descriptor.Action) error

// Execute calls f.
func (f CommandFunc) Execute(ctx context.Context, action descriptor.Action) error {
	return f(ctx, action)
}

// Validator is implemented by parameter structs that check themselves after
// decoding.
type Validator interface {
	Validate() error
}

// DecodeParams decodes action parameters over defaults and validates the
// result. Failures are tagged services.ErrValidation.
func DecodeParams[P any](family string, action descriptor.Action, defaults P) (P, error) {
	params := defaults
	if err := action.Decode(&params); err != nil {
		return defaults, services.Wrap(services.ErrValidation, family, action.Command, "invalid parameters", err)
	}
	if v, ok := any(&params).(Validator); ok {
		if err := v.Validate(); err != nil {
			return defaults, services.Wrap(services.ErrValidation, family, action.Command, "invalid parameters", err)
		}
	}
	return params, nil
}

// RequireParam builds a validation error for a missing parameter.
func RequireParam(name string) error {
	return fmt.Errorf("%s is required", name)
}
