package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/artifact"
	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	"mediaflow/internal/history"
	"mediaflow/internal/logging"
	"mediaflow/internal/metrics"
	"mediaflow/internal/notifications"
	"mediaflow/internal/preflight"
	"mediaflow/internal/services"
)

const component = "project"

var (
	// ErrPreflight reports a readiness check that failed before the run began.
	ErrPreflight = errors.New("preflight failed")
	// ErrFamilyPanic reports a panic that escaped a family factory or its
	// handler. The activity is skipped and the run continues.
	ErrFamilyPanic = errors.New("activity panicked")
)

// PreflightFunc evaluates readiness before a run.
type PreflightFunc func(ctx context.Context, cfg *config.Config) []preflight.Result

// Option customizes a Manager.
type Option func(*Manager)

// WithStore shares an existing artifact store instead of a fresh one per run.
func WithStore(store *artifact.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithRunner replaces the external command runner handed to families.
func WithRunner(runner services.CommandRunner) Option {
	return func(m *Manager) {
		m.runner = runner
	}
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(m *Manager) {
		m.history = store
	}
}

// WithMetrics counts actions, activities, and runs in collectors.
func WithMetrics(collectors *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = collectors
	}
}

// WithNotifier publishes run completion and startup failures to notifier.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithPreflight replaces the readiness checks. A nil func disables them.
func WithPreflight(fn PreflightFunc) Option {
	return func(m *Manager) {
		m.preflight = fn
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager runs projects against a handler registry.
type Manager struct {
	cfg       *config.Config
	registry  *handler.Registry
	logger    *slog.Logger
	store     *artifact.Store
	runner    services.CommandRunner
	history   *history.Store
	metrics   *metrics.Metrics
	notifier  notifications.Service
	preflight PreflightFunc
	now       func() time.Time
}

// NewManager constructs a Manager. A nil registry means DefaultRegistry.
func NewManager(cfg *config.Config, registry *handler.Registry, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("project manager requires config")
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		runner:    services.ExecRunner,
		preflight: preflight.RunAll,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run executes the project at path. Unit failures are recorded in the report
// and do not produce an error; the returned error covers a project that
// cannot start at all and cancellation of ctx.
func (m *Manager) Run(ctx context.Context, path string) (Report, error) {
	report := Report{RunID: uuid.NewString(), StartedAt: m.now()}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, component))

	project, err := descriptor.LoadProject(path)
	if err != nil {
		return report, fmt.Errorf("load project: %w", err)
	}
	report.Project = project.DisplayTitle()
	report.Source = project.Source

	if err := m.cfg.EnsureDirectories(); err != nil {
		return report, err
	}
	lock, err := acquireLock(m.cfg.LockPath())
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if err := m.checkReady(ctx, logger); err != nil {
		m.notify(ctx, logger, notifications.EventError, notifications.Payload{
			"context": report.Project,
			"error":   err.Error(),
		})
		return report, err
	}

	workDir, cleanup, err := m.prepareWorkDir(report.RunID, logger)
	if err != nil {
		return report, err
	}
	defer cleanup()
	report.WorkDir = workDir

	store := m.store
	if store == nil {
		store = artifact.NewStore()
	}
	m.startHistory(ctx, logger, report)

	logger.Info("project started",
		logging.String("project", report.Project),
		logging.String(logging.FieldPath, report.Source),
		logging.Int("pipelines", len(project.Pipelines)),
	)

	for index, ref := range project.Pipelines {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled",
				logging.Int("remaining_pipelines", len(project.Pipelines)-index),
				logging.Error(err),
			)
			report.Err = err
			break
		}
		pipelineReport := m.runPipeline(ctx, logger, store, workDir, ref)
		report.Pipelines = append(report.Pipelines, pipelineReport)
		if report.Err == nil && ctx.Err() != nil {
			report.Err = ctx.Err()
		}
	}

	report.FinishedAt = m.now()
	m.finish(ctx, logger, report)
	report.Log(logger)
	return report, report.Err
}

func (m *Manager) checkReady(ctx context.Context, logger *slog.Logger) error {
	if m.preflight == nil {
		return nil
	}
	failed := preflight.Failed(m.preflight(ctx, m.cfg))
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, result := range failed {
		logger.Error("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
		details = append(details, result.Name+": "+result.Detail)
	}
	return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(details, "; "))
}

func (m *Manager) prepareWorkDir(runID string, logger *slog.Logger) (string, func(), error) {
	root := m.cfg.Paths.WorkDir
	CleanStale(root, runID, StaleWorkDirAge, logger)

	workDir := filepath.Join(root, runID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create run work directory: %w", err)
	}
	cleanup := func() {
		if m.cfg.Paths.KeepWorkDir {
			logger.Info("keeping run work directory", logging.String(logging.FieldPath, workDir))
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("failed to remove run work directory",
				logging.String(logging.FieldPath, workDir),
				logging.Error(err),
			)
		}
	}
	return workDir, cleanup, nil
}

func (m *Manager) runPipeline(ctx context.Context, logger *slog.Logger, store *artifact.Store, workDir string, ref descriptor.PipelineRef) PipelineReport {
	report := PipelineReport{Path: ref.Path}
	if !ref.IsEnabled() {
		report.Disabled = true
		logger.Info("pipeline disabled; skipping", logging.String(logging.FieldPath, ref.Path))
		return report
	}

	pipeline, err := descriptor.LoadPipeline(ref.Path)
	if err != nil {
		report.Err = err
		logger.Error("pipeline unreadable; skipping",
			logging.String(logging.FieldPath, ref.Path),
			logging.Error(err),
		)
		return report
	}
	report.Title = pipeline.DisplayTitle()

	ctx = services.WithPipeline(ctx, report.Title)
	pipelineLogger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, component))
	pipelineLogger.Info("pipeline started", logging.Int("activities", len(pipeline.Activities)))

	for index, activity := range pipeline.Activities {
		if err := ctx.Err(); err != nil {
			pipelineLogger.Warn("pipeline interrupted",
				logging.Int("remaining_activities", len(pipeline.Activities)-index),
				logging.Error(err),
			)
			break
		}
		activityReport := m.runActivity(ctx, store, workDir, index, activity)
		report.Activities = append(report.Activities, activityReport)
		m.recordActivity(ctx, pipelineLogger, report.Title, activityReport)
	}
	return report
}

func (m *Manager) runActivity(ctx context.Context, store *artifact.Store, workDir string, index int, activity descriptor.Activity) ActivityReport {
	name := activity.Label(index)
	typeName := strings.TrimSpace(activity.Type)
	report := ActivityReport{Name: name, Type: typeName}
	report.Result = handler.Result{Type: typeName, Activity: name}

	ctx = services.WithActivity(ctx, name)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, component))

	if activity.Invalid != nil {
		report.Err = activity.Invalid
		logger.Error("malformed activity; skipping", logging.Error(activity.Invalid))
		m.observeActivity(report)
		return report
	}

	factory, err := m.registry.Lookup(typeName)
	if err != nil {
		report.Err = err
		logger.Error("unknown activity type; skipping",
			logging.String("type", typeName),
			logging.Error(err),
		)
		m.observeActivity(report)
		return report
	}

	family, err := m.construct(factory, store, workDir)
	if err != nil {
		report.Err = err
		logger.Error("activity handler unavailable; skipping",
			logging.String("type", typeName),
			logging.String("error_kind", services.Classify(err)),
			logging.Error(err),
		)
		m.observeActivity(report)
		return report
	}

	var opts []handler.Option
	if m.metrics != nil {
		opts = append(opts, handler.WithObserver(m.metrics))
	}
	h := handler.New(typeName, family, logging.NewComponentLogger(m.logger, typeName), opts...)
	report.Result, report.Err = m.execute(ctx, h, activity)
	if report.Err != nil {
		logger.Error("activity ended early",
			logging.String("type", typeName),
			logging.String("error_kind", services.Classify(report.Err)),
			logging.Error(report.Err),
		)
	}
	m.observeActivity(report)
	return report
}

func (m *Manager) execute(ctx context.Context, h *handler.Handler, activity descriptor.Activity) (result handler.Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrFamilyPanic, recovered)
		}
	}()
	return h.Run(ctx, activity)
}

func (m *Manager) construct(factory handler.Factory, store *artifact.Store, workDir string) (family handler.Family, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			family = nil
			err = fmt.Errorf("%w: %v", ErrFamilyPanic, recovered)
		}
	}()
	family, err = factory(handler.Env{
		Store:   store,
		Logger:  m.logger,
		Config:  m.cfg,
		WorkDir: workDir,
		Runner:  m.runner,
	})
	if err == nil && family == nil {
		err = errors.New("factory returned no family")
	}
	return family, err
}

func (m *Manager) observeActivity(report ActivityReport) {
	if m.metrics == nil {
		return
	}
	m.metrics.ObserveActivity(report.Type, report.Result, report.Err)
}

func (m *Manager) startHistory(ctx context.Context, logger *slog.Logger, report Report) {
	if m.history == nil {
		return
	}
	err := m.history.StartRun(ctx, history.Run{
		ID:           report.RunID,
		ProjectTitle: report.Project,
		ProjectPath:  report.Source,
		StartedAt:    report.StartedAt,
	})
	if err != nil {
		logger.Warn("failed to record run start", logging.Error(err))
	}
}

func (m *Manager) recordActivity(ctx context.Context, logger *slog.Logger, pipeline string, report ActivityReport) {
	if m.history == nil {
		return
	}
	executed, skipped, failed := report.Result.Counts()
	runID, _ := services.RunIDFromContext(ctx)
	row := history.Activity{
		RunID:    runID,
		Pipeline: pipeline,
		Name:     report.Name,
		Type:     report.Type,
		Executed: executed,
		Skipped:  skipped,
		Failed:   failed,
		Duration: report.Result.Duration,
	}
	if report.Err != nil {
		row.ErrorMessage = report.Err.Error()
	}
	if err := m.history.RecordActivity(context.WithoutCancel(ctx), row); err != nil {
		logger.Warn("failed to record activity result", logging.Error(err))
	}
}

func (m *Manager) finish(ctx context.Context, logger *slog.Logger, report Report) {
	executed, skipped, failed := report.Totals()

	if m.history != nil {
		run := history.Run{
			ID:         report.RunID,
			Status:     runStatus(report),
			FinishedAt: report.FinishedAt,
			Executed:   executed,
			Skipped:    skipped,
			Failed:     failed,
		}
		if report.Err != nil {
			run.ErrorMessage = report.Err.Error()
		}
		if err := m.history.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run result", logging.Error(err))
		}
	}

	event := notifications.EventRunCompleted
	if report.Failed() {
		event = notifications.EventRunFailed
	}
	m.notify(ctx, logger, event, notifications.Payload{
		"project":     report.Project,
		"executed":    executed,
		"failed":      failed,
		"failedUnits": report.FailedUnits(),
		"duration":    report.Duration(),
	})

	if m.metrics != nil {
		m.metrics.ObserveRun(report.Duration(), failed, report.FinishedAt)
		if path := strings.TrimSpace(m.cfg.Metrics.Textfile); path != "" {
			if err := m.metrics.WriteTextfile(path); err != nil {
				logger.Warn("failed to write metrics textfile",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
				)
			}
		}
	}
}

func (m *Manager) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func runStatus(report Report) history.Status {
	switch {
	case errors.Is(report.Err, context.Canceled), errors.Is(report.Err, context.DeadlineExceeded):
		return history.StatusCancelled
	case report.Failed():
		return history.StatusFailed
	default:
		return history.StatusSucceeded
	}
}
