package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"mediaflow/internal/descriptor"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

var (
	// ErrHandlerSpent reports a second Run on a single-use handler.
	ErrHandlerSpent = errors.New("handler already ran an activity")
	// ErrUnknownCommand reports an action whose command is not in the table.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrCommandPanic reports a command that panicked; the activity is aborted.
	ErrCommandPanic = errors.New("command panicked")
	// ErrFamilyPanic reports a family that panicked while loading defaults or
	// building its command table.
	ErrFamilyPanic = errors.New("family panicked")
)

// Family is the per-type collaborator a Handler drives.
type Family interface {
	// LoadDefaults configures the family from the activity defaults.
	LoadDefaults(ctx context.Context, defaults descriptor.Params) error
	// Commands returns the family's command table.
	Commands() map[string]Command
}

// State is the handler lifecycle position.
type State int

const (
	StateConstructed State = iota
	StateDefaultsLoaded
	StateDispatching
	StateDone
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateDefaultsLoaded:
		return "defaults_loaded"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome classifies one action dispatch.
type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeDisabled Outcome = "disabled"
	OutcomeMissing  Outcome = "missing_command"
	OutcomeUnknown  Outcome = "unknown_command"
	OutcomeFailed   Outcome = "failed"
)

// Skipped reports whether the action was not attempted.
func (o Outcome) Skipped() bool {
	return o == OutcomeDisabled || o == OutcomeMissing
}

// ActionResult records one dispatch.
type ActionResult struct {
	Index    int
	Command  string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Result summarizes one activity run.
type Result struct {
	Type     string
	Activity string
	Actions  []ActionResult
	Duration time.Duration
}

// Counts tallies executed, skipped, and failed actions. Unknown commands
// count as failed.
func (r Result) Counts() (executed, skipped, failed int) {
	for _, action := range r.Actions {
		switch {
		case action.Outcome == OutcomeExecuted:
			executed++
		case action.Outcome.Skipped():
			skipped++
		default:
			failed++
		}
	}
	return executed, skipped, failed
}

// Observer receives every action result as it happens.
type Observer interface {
	ObserveAction(family string, result ActionResult)
}

// Option customizes a Handler.
type Option func(*Handler)

// WithObserver attaches an Observer.
func WithObserver(observer Observer) Option {
	return func(h *Handler) {
		h.observer = observer
	}
}

// Handler runs one activity against a Family.
type Handler struct {
	typeName string
	family   Family
	logger   *slog.Logger
	observer Observer
	state    State
}

// New constructs a handler for typeName.
func New(typeName string, family Family, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Handler{
		typeName: typeName,
		family:   family,
		logger:   logger,
		state:    StateConstructed,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the lifecycle position.
func (h *Handler) State() State {
	return h.state
}

// Run applies the activity defaults and dispatches every action in order.
// Action failures are recorded in the result, not returned. The returned
// error reports why the activity ended early: rejected defaults, a panic in
// the family or a command, or cancellation.
func (h *Handler) Run(ctx context.Context, activity descriptor.Activity) (result Result, err error) {
	if h.state != StateConstructed {
		return Result{}, ErrHandlerSpent
	}
	started := time.Now()
	result = Result{Type: h.typeName, Activity: activity.Name}
	logger := logging.WithContext(ctx, h.logger)
	defer func() {
		h.state = StateDone
		result.Duration = time.Since(started)
	}()

	logger.Debug("running activity",
		logging.String("type", h.typeName),
		logging.Int("actions", len(activity.Actions)),
	)
	commands, err := h.prepare(ctx, logger, activity.Defaults)
	if err != nil {
		return result, err
	}
	h.state = StateDispatching
	for index, action := range activity.Actions {
		if err := ctx.Err(); err != nil {
			logger.Warn("activity interrupted",
				logging.Int("remaining_actions", len(activity.Actions)-index),
				logging.Error(err),
			)
			return result, err
		}
		actionResult, err := h.handle(ctx, logger, commands, index, action)
		result.Actions = append(result.Actions, actionResult)
		if h.observer != nil {
			h.observer.ObserveAction(h.typeName, actionResult)
		}
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (h *Handler) prepare(ctx context.Context, logger *slog.Logger, defaults descriptor.Params) (commands map[string]Command, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			commands = nil
			err = fmt.Errorf("%w: %s: %v", ErrFamilyPanic, h.typeName, recovered)
			logger.Error("family panicked; aborting activity",
				logging.Any("panic", recovered),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := h.family.LoadDefaults(ctx, defaults); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, h.typeName, "load defaults", "activity defaults rejected", err)
	}
	h.state = StateDefaultsLoaded
	return h.family.Commands(), nil
}

func (h *Handler) handle(ctx context.Context, logger *slog.Logger, commands map[string]Command, index int, action descriptor.Action) (result ActionResult, err error) {
	command := strings.TrimSpace(action.Command)
	result = ActionResult{Index: index, Command: command}

	if action.Invalid != nil {
		result.Outcome = OutcomeFailed
		result.Err = action.Invalid
		logger.Error("malformed action; skipping",
			logging.String(logging.FieldCommand, action.Label()),
			logging.Error(action.Invalid),
		)
		return result, nil
	}
	if !action.IsEnabled() {
		logger.Warn("action disabled; skipping", logging.String(logging.FieldCommand, action.Label()))
		result.Outcome = OutcomeDisabled
		return result, nil
	}
	if command == "" {
		logger.Warn("action has no command; skipping", logging.Int("action_index", index))
		result.Outcome = OutcomeMissing
		return result, nil
	}
	bound, ok := commands[command]
	if !ok || bound == nil {
		result.Outcome = OutcomeUnknown
		result.Err = fmt.Errorf("%w: %s", ErrUnknownCommand, command)
		logger.Error("unknown command",
			logging.String(logging.FieldCommand, command),
			logging.String("type", h.typeName),
		)
		return result, nil
	}

	cmdCtx := services.WithCommand(ctx, command)
	cmdLogger := logging.WithContext(cmdCtx, h.logger)
	started := time.Now()
	defer func() {
		result.Duration = time.Since(started)
		if recovered := recover(); recovered != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("%w: %s: %v", ErrCommandPanic, command, recovered)
			cmdLogger.Error("command panicked; aborting activity",
				logging.Any("panic", recovered),
				logging.String("stack", string(debug.Stack())),
			)
			err = result.Err
		}
	}()

	cmdLogger.Debug("executing command")
	if execErr := bound.Execute(cmdCtx, action); execErr != nil {
		result.Outcome = OutcomeFailed
		result.Err = execErr
		cmdLogger.Error("command failed",
			logging.String("error_kind", services.Classify(execErr)),
			logging.Error(execErr),
		)
		return result, nil
	}
	result.Outcome = OutcomeExecuted
	cmdLogger.Debug("command completed", logging.Duration("duration", time.Since(started)))
	return result, nil
}
