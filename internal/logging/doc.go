// Package logging assembles structured slog loggers and formatting helpers used
// across mediaflow.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handler code automatically
// tags log lines with run IDs, pipelines, activities, and commands. Each run
// can tee its output into a dedicated run log file. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new families emit
// data with the same shape and routing as the rest of the system.
package logging
