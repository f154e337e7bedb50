package project

import (
	"context"
	"log/slog"
	"time"

	"mediaflow/internal/handler"
	"mediaflow/internal/logging"
)

// ActivityReport records one activity of a pipeline.
type ActivityReport struct {
	Name   string
	Type   string
	Result handler.Result
	// Err is set when the activity was skipped or ended early: malformed
	// descriptor, unknown type, construction failure, rejected defaults, panic,
	// or cancellation.
	Err error
}

// Failed reports whether the activity did not finish cleanly.
func (a ActivityReport) Failed() bool {
	if a.Err != nil {
		return true
	}
	_, _, failed := a.Result.Counts()
	return failed > 0
}

// PipelineReport records one pipeline reference of a project.
type PipelineReport struct {
	Title    string
	Path     string
	Disabled bool
	// Err is set when the pipeline descriptor could not be loaded or the run
	// was cancelled before it started.
	Err        error
	Activities []ActivityReport
}

// Report summarizes a project run.
type Report struct {
	RunID      string
	Project    string
	Source     string
	WorkDir    string
	StartedAt  time.Time
	FinishedAt time.Time
	Pipelines  []PipelineReport
	// Err is set when the run itself stopped early.
	Err error
}

// Totals tallies executed, skipped, and failed actions across the run.
func (r Report) Totals() (executed, skipped, failed int) {
	for _, pipeline := range r.Pipelines {
		for _, activity := range pipeline.Activities {
			e, s, f := activity.Result.Counts()
			executed += e
			skipped += s
			failed += f
		}
	}
	return executed, skipped, failed
}

// FailedUnits counts pipelines and activities that were skipped or aborted.
func (r Report) FailedUnits() int {
	count := 0
	for _, pipeline := range r.Pipelines {
		if pipeline.Err != nil {
			count++
		}
		for _, activity := range pipeline.Activities {
			if activity.Err != nil {
				count++
			}
		}
	}
	return count
}

// Failed reports whether any unit or action failed.
func (r Report) Failed() bool {
	if r.Err != nil || r.FailedUnits() > 0 {
		return true
	}
	_, _, failed := r.Totals()
	return failed > 0
}

// Duration returns the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Log writes the per-pipeline summary followed by the run totals.
func (r Report) Log(logger *slog.Logger) {
	if logger == nil {
		return
	}
	for _, pipeline := range r.Pipelines {
		switch {
		case pipeline.Disabled:
			logger.Info("pipeline disabled", logging.String(logging.FieldPath, pipeline.Path))
			continue
		case pipeline.Err != nil && len(pipeline.Activities) == 0:
			logger.Warn("pipeline not run",
				logging.String(logging.FieldPath, pipeline.Path),
				logging.Error(pipeline.Err),
			)
			continue
		}
		for _, activity := range pipeline.Activities {
			executed, skipped, failed := activity.Result.Counts()
			attrs := []logging.Attr{
				logging.String(logging.FieldPipeline, pipeline.Title),
				logging.String(logging.FieldActivity, activity.Name),
				logging.String("type", activity.Type),
				logging.Int("executed", executed),
				logging.Int("skipped", skipped),
				logging.Int("failed", failed),
				logging.Duration("duration", activity.Result.Duration),
			}
			if activity.Err != nil {
				attrs = append(attrs, logging.Error(activity.Err))
			}
			level := slog.LevelInfo
			if activity.Failed() {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, "activity summary", logging.Args(attrs...)...)
		}
	}

	executed, skipped, failed := r.Totals()
	logger.Info("run summary",
		logging.String(logging.FieldRunID, r.RunID),
		logging.String("project", r.Project),
		logging.Int("pipelines", len(r.Pipelines)),
		logging.Int("executed", executed),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed),
		logging.Int("failed_units", r.FailedUnits()),
		logging.Duration("duration", r.Duration()),
	)
}
