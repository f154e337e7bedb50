package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mediaflow/internal/handler"
	"mediaflow/internal/metrics"
)

func TestObserveActionCountsOutcomes(t *testing.T) {
	m := metrics.New()
	m.ObserveAction("tts", handler.ActionResult{Command: "generate-speech", Outcome: handler.OutcomeExecuted, Duration: time.Second})
	m.ObserveAction("tts", handler.ActionResult{Command: "generate-speech", Outcome: handler.OutcomeExecuted})
	m.ObserveAction("tts", handler.ActionResult{Command: "combine-audios", Outcome: handler.OutcomeFailed})
	m.ObserveAction("tts", handler.ActionResult{Outcome: handler.OutcomeMissing})

	if got := testutil.ToFloat64(m.ActionsTotal.WithLabelValues("tts", "generate-speech", "executed")); got != 2 {
		t.Fatalf("expected 2 executed speech actions, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActionsTotal.WithLabelValues("tts", "combine-audios", "failed")); got != 1 {
		t.Fatalf("expected 1 failed combine, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActionsTotal.WithLabelValues("tts", "none", "missing_command")); got != 1 {
		t.Fatalf("expected missing command counted under none, got %v", got)
	}
}

func TestObserveActivityOutcomes(t *testing.T) {
	m := metrics.New()
	ok := handler.Result{Actions: []handler.ActionResult{{Outcome: handler.OutcomeExecuted}}}
	partial := handler.Result{Actions: []handler.ActionResult{{Outcome: handler.OutcomeExecuted}, {Outcome: handler.OutcomeFailed}}}
	m.ObserveActivity("sdp", ok, nil)
	m.ObserveActivity("sdp", partial, nil)
	m.ObserveActivity("sdp", handler.Result{}, errors.New("defaults"))

	for outcome, want := range map[string]float64{"ok": 1, "partial": 1, "aborted": 1} {
		if got := testutil.ToFloat64(m.ActivitiesTotal.WithLabelValues("sdp", outcome)); got != want {
			t.Fatalf("outcome %s: expected %v, got %v", outcome, want, got)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	m := metrics.New()
	m.ObserveAction("text", handler.ActionResult{Command: "write-text", Outcome: handler.OutcomeExecuted})
	m.ObserveRun(90*time.Second, 0, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "mediaflow.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`mediaflow_actions_total{command="write-text",family="text",outcome="executed"} 1`,
		"mediaflow_run_duration_seconds 90",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestWriteTextfileRequiresPath(t *testing.T) {
	if err := metrics.New().WriteTextfile(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
