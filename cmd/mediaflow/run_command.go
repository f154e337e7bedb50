package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mediaflow/internal/config"
	"mediaflow/internal/history"
	"mediaflow/internal/logging"
	"mediaflow/internal/metrics"
	"mediaflow/internal/notifications"
	"mediaflow/internal/project"
)

// errRunFailed reports a run that completed with failed units. The details
// are already in the log stream, so main exits without printing it.
var errRunFailed = errors.New("run completed with failures")

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <project>",
		Short: "Run every enabled pipeline of a project",
		Long: `Run every enabled pipeline of a project in order.

Relative pipeline paths in the project file are resolved against the
directory that contains the project file, not the current working
directory. Use absolute paths for pipelines that live elsewhere.

Failed actions, activities and pipelines are logged and skipped; the run
exits with an error after finishing everything else.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			started := time.Now()
			logger, closer := attachRunLog(cfg, logger, started)
			if closer != nil {
				defer closer.Close()
			}

			opts := []project.Option{project.WithNotifier(notifications.NewService(cfg))}
			if skipPreflight {
				opts = append(opts, project.WithPreflight(nil))
			}
			if cfg.History.Enabled {
				store, err := history.Open(cmd.Context(), cfg.HistoryPath())
				if err != nil {
					logger.Warn("run history unavailable", logging.Error(err))
				} else {
					defer store.Close()
					opts = append(opts, project.WithHistory(store))
				}
			}
			if cfg.Metrics.Textfile != "" {
				opts = append(opts, project.WithMetrics(metrics.New()))
			}

			manager, err := project.NewManager(cfg, project.DefaultRegistry(), logger, opts...)
			if err != nil {
				return err
			}
			report, err := manager.Run(cmd.Context(), args[0])
			printRunSummary(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if report.Failed() {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and free space checks")
	return cmd
}

// attachRunLog tees logger into a per-run JSON log file when enabled and
// prunes old run logs. Failures fall back to the console logger.
func attachRunLog(cfg *config.Config, logger *slog.Logger, started time.Time) (*slog.Logger, io.Closer) {
	if !cfg.Logging.RunLogs || cfg.Paths.LogDir == "" {
		return logger, nil
	}
	path := logging.RunLogPath(cfg.Paths.LogDir, started)
	teed, closer, err := logging.WithRunFile(logger, path, cfg.Logging.Level)
	if err != nil {
		logger.Warn("run log file unavailable", logging.String(logging.FieldPath, path), logging.Error(err))
		return logger, nil
	}
	logging.PruneRunLogs(teed, cfg.Paths.LogDir, cfg.Logging.RetentionDays, path)
	return teed, closer
}

func printRunSummary(out io.Writer, report project.Report) {
	if report.Project == "" {
		return
	}
	executed, skipped, failed := report.Totals()
	fmt.Fprintf(out, "Run %s (%s)\n", report.RunID, report.Project)
	fmt.Fprintf(out, "Actions: %d executed, %d skipped, %d failed\n", executed, skipped, failed)
	if units := report.FailedUnits(); units > 0 {
		fmt.Fprintf(out, "Skipped or aborted units: %d\n", units)
	}
	if report.FinishedAt.IsZero() {
		return
	}
	fmt.Fprintf(out, "Duration: %s\n", report.Duration().Round(time.Millisecond))
}
