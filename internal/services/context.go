package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	pipelineKey contextKey = "pipeline"
	activityKey contextKey = "activity"
	commandKey  contextKey = "command"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithPipeline annotates context with the pipeline (subproject) title.
func WithPipeline(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, pipelineKey, title)
}

// PipelineFromContext returns the pipeline title if present.
func PipelineFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, pipelineKey)
}

// WithActivity annotates context with the activity name.
func WithActivity(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, activityKey, name)
}

// ActivityFromContext returns the activity name if present.
func ActivityFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, activityKey)
}

// WithCommand annotates context with the command currently being dispatched.
func WithCommand(ctx context.Context, command string) context.Context {
	if command == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, command)
}

// CommandFromContext returns the command name if present.
func CommandFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, commandKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
