package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mediaflow/internal/fileutil"
	"mediaflow/internal/handler"
)

const namespace = "mediaflow"

// Metrics holds the collectors for one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ActionsTotal    *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec
	ActivitiesTotal *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	RunFailures     prometheus.Gauge
	LastRunTime     prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Actions dispatched by family, command, and outcome",
			},
			[]string{"family", "command", "outcome"},
		),
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Action execution time in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"family", "command"},
		),
		ActivitiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activities_total",
				Help:      "Activities run by family and outcome",
			},
			[]string{"family", "outcome"},
		),
		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of the last project run in seconds",
			},
		),
		RunFailures: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_failed_actions",
				Help:      "Failed actions in the last project run",
			},
		),
		LastRunTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last project run finished",
			},
		),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveAction implements handler.Observer.
func (m *Metrics) ObserveAction(family string, result handler.ActionResult) {
	command := result.Command
	if command == "" {
		command = "none"
	}
	m.ActionsTotal.WithLabelValues(family, command, string(result.Outcome)).Inc()
	if result.Outcome == handler.OutcomeExecuted || result.Outcome == handler.OutcomeFailed {
		m.ActionDuration.WithLabelValues(family, command).Observe(result.Duration.Seconds())
	}
}

// ObserveActivity counts one activity. Outcome is "ok" when every action
// executed, "partial" when some failed, and "aborted" when runErr ended it
// early or it never started.
func (m *Metrics) ObserveActivity(family string, result handler.Result, runErr error) {
	outcome := "ok"
	if _, _, failed := result.Counts(); failed > 0 {
		outcome = "partial"
	}
	if runErr != nil {
		outcome = "aborted"
	}
	m.ActivitiesTotal.WithLabelValues(family, outcome).Inc()
}

// ObserveRun records the run totals.
func (m *Metrics) ObserveRun(duration time.Duration, failed int, finished time.Time) {
	m.RunDuration.Set(duration.Seconds())
	m.RunFailures.Set(float64(failed))
	m.LastRunTime.Set(float64(finished.Unix()))
}

// WriteTextfile writes every collector to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("metrics textfile path is empty")
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ handler.Observer = (*Metrics)(nil)
