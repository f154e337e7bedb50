package project_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
	"mediaflow/internal/history"
	"mediaflow/internal/logging"
	"mediaflow/internal/metrics"
	"mediaflow/internal/notifications"
	"mediaflow/internal/preflight"
	"mediaflow/internal/project"
	"mediaflow/internal/testsupport"
	"mediaflow/internal/text"
)

type countingFamily struct {
	calls *[]string
}

func (f countingFamily) LoadDefaults(context.Context, descriptor.Params) error { return nil }

func (f countingFamily) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"mark": handler.CommandFunc(func(_ context.Context, action descriptor.Action) error {
			label, _ := action.Params.String("label")
			*f.calls = append(*f.calls, label)
			return nil
		}),
		"fail": handler.CommandFunc(func(context.Context, descriptor.Action) error {
			return errors.New("collaborator failed")
		}),
	}
}

func testRegistry(calls *[]string) *handler.Registry {
	registry := handler.NewRegistry()
	registry.MustRegister(text.TypeName, text.New)
	registry.MustRegister("count", func(handler.Env) (handler.Family, error) {
		return countingFamily{calls: calls}, nil
	})
	registry.MustRegister("panics", func(handler.Env) (handler.Family, error) {
		panic("factory exploded")
	})
	registry.MustRegister("broken", func(handler.Env) (handler.Family, error) {
		return nil, errors.New("not configured")
	})
	return registry
}

func newManager(t *testing.T, cfg *config.Config, registry *handler.Registry, opts ...project.Option) *project.Manager {
	t.Helper()
	opts = append([]project.Option{project.WithPreflight(nil)}, opts...)
	m, err := project.NewManager(cfg, registry, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func action(command string, params map[string]any) map[string]any {
	out := map[string]any{"command": command}
	for key, value := range params {
		out[key] = value
	}
	return out
}

func writeProject(t *testing.T, dir string, pipelines map[string]any, refs []map[string]any) string {
	t.Helper()
	for name, pipeline := range pipelines {
		testsupport.WriteJSON(t, filepath.Join(dir, name), pipeline)
	}
	path := filepath.Join(dir, "project.json")
	testsupport.WriteJSON(t, path, map[string]any{
		"project-title": "Demo",
		"pipelines":     refs,
	})
	return path
}

func TestRunIsolatesFailuresAndHandsOffArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "greeting.txt")

	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"main.json": map[string]any{
			"subproject-title": "Main",
			"activities": []any{
				map[string]any{"name": "write", "type": "text", "actions": []any{
					action("write-text", map[string]any{"text": "hello", "text-name": "greeting"}),
				}},
				map[string]any{"name": "mystery", "type": "nope", "actions": []any{action("anything", nil)}},
				map[string]any{"name": "exploding", "type": "panics", "actions": []any{action("anything", nil)}},
				map[string]any{"name": "read", "type": "text", "actions": []any{
					action("concat-text", map[string]any{"text-names": []string{"greeting"}, "separator": "", "output-text-path": out}),
				}},
				map[string]any{"name": "mixed", "type": "count", "actions": []any{
					action("mark", map[string]any{"label": "a"}),
					action("fail", nil),
					action("mark", map[string]any{"label": "b", "enabled": false}),
					action("unknown", nil),
					action("mark", map[string]any{"label": "c"}),
				}},
			},
		},
		"skipped.json": map[string]any{"subproject-title": "Skipped", "activities": []any{
			map[string]any{"type": "count", "actions": []any{action("mark", map[string]any{"label": "never"})}},
		}},
	}, []map[string]any{
		{"path": "main.json"},
		{"path": "skipped.json", "enabled": false},
		{"path": "missing.json"},
	})

	report, err := newManager(t, cfg, testRegistry(&calls)).Run(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("expected cache hand-off output: %v", readErr)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected output %q", data)
	}
	if strings.Join(calls, ",") != "a,c" {
		t.Fatalf("unexpected calls %v", calls)
	}

	if report.Project != "Demo" || len(report.Pipelines) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	first := report.Pipelines[0]
	if first.Title != "Main" || len(first.Activities) != 5 {
		t.Fatalf("unexpected main pipeline %+v", first)
	}
	if !errors.Is(first.Activities[1].Err, handler.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", first.Activities[1].Err)
	}
	if !errors.Is(first.Activities[2].Err, project.ErrFamilyPanic) {
		t.Fatalf("expected factory panic, got %v", first.Activities[2].Err)
	}
	if !report.Pipelines[1].Disabled {
		t.Fatal("expected second pipeline disabled")
	}
	if !errors.Is(report.Pipelines[2].Err, descriptor.ErrDescriptorNotFound) {
		t.Fatalf("expected missing descriptor, got %v", report.Pipelines[2].Err)
	}

	executed, skipped, failed := report.Totals()
	if executed != 4 || skipped != 1 || failed != 2 {
		t.Fatalf("unexpected totals %d/%d/%d", executed, skipped, failed)
	}
	if report.FailedUnits() != 3 || !report.Failed() {
		t.Fatalf("expected 3 failed units, got %d", report.FailedUnits())
	}

	if _, err := os.Stat(report.WorkDir); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, stat err=%v", err)
	}
}

type nilMapFamily struct {
	settings map[string]string
}

func (f nilMapFamily) LoadDefaults(context.Context, descriptor.Params) error {
	f.settings["model"] = "vits"
	return nil
}

func (f nilMapFamily) Commands() map[string]handler.Command { return nil }

func TestRunContainsMalformedAndPanickingActivities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "first.txt")

	var calls []string
	registry := testRegistry(&calls)
	registry.MustRegister("nil-map", func(handler.Env) (handler.Family, error) {
		return nilMapFamily{}, nil
	})
	projectPath := writeProject(t, dir, map[string]any{
		"main.json": map[string]any{
			"subproject-title": "Main",
			"activities": []any{
				map[string]any{"name": "write", "type": "text", "actions": []any{
					action("write-text", map[string]any{"text": "hello", "output-text-path": out}),
				}},
				map[string]any{"name": "defaults", "type": "nil-map", "actions": []any{action("anything", nil)}},
				map[string]any{"name": "mixed", "type": "count", "actions": []any{
					action("mark", map[string]any{"label": "a", "enabled": "yes"}),
					action("mark", map[string]any{"label": "b", "enabled": "maybe"}),
					map[string]any{"command": 42, "label": "c"},
					action("mark", map[string]any{"label": "d"}),
				}},
				map[string]any{"name": "shapeless", "type": "count", "actions": "mark"},
				map[string]any{"name": "last", "type": "count", "actions": []any{
					action("mark", map[string]any{"label": "z"}),
				}},
			},
		},
	}, []map[string]any{{"path": "main.json"}})

	report, err := newManager(t, cfg, registry).Run(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if data, readErr := os.ReadFile(out); readErr != nil || string(data) != "hello" {
		t.Fatalf("expected first activity output, got %q (err=%v)", data, readErr)
	}
	if strings.Join(calls, ",") != "a,d,z" {
		t.Fatalf("unexpected calls %v", calls)
	}

	activities := report.Pipelines[0].Activities
	if len(activities) != 5 {
		t.Fatalf("expected 5 activity reports, got %d", len(activities))
	}
	if !errors.Is(activities[1].Err, handler.ErrFamilyPanic) {
		t.Fatalf("expected defaults panic, got %v", activities[1].Err)
	}
	if activities[2].Err != nil {
		t.Fatalf("expected mixed activity to finish, got %v", activities[2].Err)
	}
	if executed, _, failed := activities[2].Result.Counts(); executed != 2 || failed != 2 {
		t.Fatalf("unexpected mixed counts executed=%d failed=%d", executed, failed)
	}
	if !errors.Is(activities[3].Err, descriptor.ErrInvalidActivity) || activities[3].Name != "shapeless" {
		t.Fatalf("expected malformed activity report, got %+v", activities[3])
	}
	if activities[4].Err != nil {
		t.Fatalf("expected last activity to run, got %v", activities[4].Err)
	}
}

func TestRunConstructionErrorSkipsActivity(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeepWorkDir())
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"activities": []any{
			map[string]any{"type": "broken", "actions": []any{action("anything", nil)}},
			map[string]any{"type": "count", "actions": []any{action("mark", map[string]any{"label": "after"})}},
		}},
	}, []map[string]any{{"path": "p.json"}})

	report, err := newManager(t, cfg, testRegistry(&calls)).Run(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 1 || calls[0] != "after" {
		t.Fatalf("expected activity after failure to run, got %v", calls)
	}
	activities := report.Pipelines[0].Activities
	if activities[0].Err == nil || activities[0].Name != "Step 1" {
		t.Fatalf("unexpected first activity %+v", activities[0])
	}
	if report.Pipelines[0].Title != "Unnamed Subproject" {
		t.Fatalf("unexpected title %q", report.Pipelines[0].Title)
	}
	if _, err := os.Stat(report.WorkDir); err != nil {
		t.Fatalf("expected work dir kept: %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"activities": []any{
			map[string]any{"type": "count", "actions": []any{action("mark", map[string]any{"label": "x"})}},
		}},
	}, []map[string]any{{"path": "p.json"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := newManager(t, cfg, testRegistry(&calls)).Run(ctx, projectPath)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 || len(report.Pipelines) != 0 {
		t.Fatalf("expected nothing to run, calls=%v pipelines=%d", calls, len(report.Pipelines))
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"activities": []any{}},
	}, []map[string]any{{"path": "p.json"}})

	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	var calls []string
	_, err = newManager(t, cfg, testRegistry(&calls)).Run(context.Background(), projectPath)
	if !errors.Is(err, project.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunPreflightFailureStopsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"activities": []any{
			map[string]any{"type": "count", "actions": []any{action("mark", map[string]any{"label": "x"})}},
		}},
	}, []map[string]any{{"path": "p.json"}})

	failing := func(context.Context, *config.Config) []preflight.Result {
		return []preflight.Result{{Name: "Work directory", Detail: "read-only"}}
	}
	_, err := newManager(t, cfg, testRegistry(&calls), project.WithPreflight(failing)).Run(context.Background(), projectPath)
	if !errors.Is(err, project.ErrPreflight) {
		t.Fatalf("expected ErrPreflight, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no actions, got %v", calls)
	}
}

func TestRunMissingProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	_, err := newManager(t, cfg, testRegistry(&calls)).Run(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	if !errors.Is(err, descriptor.ErrDescriptorNotFound) {
		t.Fatalf("expected ErrDescriptorNotFound, got %v", err)
	}
}

func TestRunRecordsHistoryAndMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory(), testsupport.WithMetricsTextfile("metrics/mediaflow.prom"))
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"subproject-title": "Only", "activities": []any{
			map[string]any{"name": "marks", "type": "count", "actions": []any{
				action("mark", map[string]any{"label": "x"}),
				action("fail", nil),
			}},
		}},
	}, []map[string]any{{"path": "p.json"}})

	store := testsupport.MustOpenHistory(t, cfg)
	collectors := metrics.New()
	report, err := newManager(t, cfg, testRegistry(&calls),
		project.WithHistory(store),
		project.WithMetrics(collectors),
	).Run(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != report.RunID {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].Status != history.StatusFailed || runs[0].Executed != 1 || runs[0].Failed != 1 {
		t.Fatalf("unexpected run row %+v", runs[0])
	}
	activities, err := store.Activities(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Pipeline != "Only" || activities[0].Name != "marks" {
		t.Fatalf("unexpected activities %+v", activities)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), `mediaflow_actions_total{command="fail",family="count",outcome="failed"} 1`) {
		t.Fatalf("metrics textfile missing action counter:\n%s", data)
	}
}

func TestCleanStale(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old-run")
	keep := filepath.Join(root, "current")
	fresh := filepath.Join(root, "fresh-run")
	for _, dir := range []string{old, keep, fresh} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	for _, dir := range []string{old, keep} {
		if err := os.Chtimes(dir, past, past); err != nil {
			t.Fatal(err)
		}
	}

	result := project.CleanStale(root, "current", project.StaleWorkDirAge, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	for _, dir := range []string{keep, fresh} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %s kept: %v", dir, err)
		}
	}
}

func TestValidateReportsIssues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"subproject-title": "Checks", "activities": []any{
			map[string]any{"name": "ok", "type": "count", "actions": []any{action("mark", nil)}},
			map[string]any{"name": "typo", "type": "count", "actions": []any{action("marc", nil)}},
			map[string]any{"name": "bad-type", "type": "nope", "actions": []any{}},
			map[string]any{"name": "unavailable", "type": "broken", "actions": []any{}},
			map[string]any{"name": "bad-defaults", "type": "text", "defaults": map[string]any{"separator": 5}, "actions": []any{}},
		}},
	}, []map[string]any{{"path": "p.json"}, {"path": "gone.json"}})

	issues, err := newManager(t, cfg, testRegistry(&calls)).Validate(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) != 5 {
		t.Fatalf("expected 5 issues, got %d: %v", len(issues), issues)
	}
	if got := project.Errors(issues); len(got) != 4 {
		t.Fatalf("expected 4 errors, got %v", got)
	}
	if issues[0].Command != "marc" || !strings.Contains(issues[0].String(), "Checks / typo / marc") {
		t.Fatalf("unexpected first issue %q", issues[0].String())
	}
	if len(calls) != 0 {
		t.Fatalf("validate executed commands: %v", calls)
	}
}

func TestDefaultRegistryTypes(t *testing.T) {
	got := strings.Join(project.DefaultRegistry().Types(), ",")
	if got != "gtrans,moviepy,sdp,storage,text,tts" {
		t.Fatalf("unexpected types %s", got)
	}
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestRunNotifiesOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	var calls []string
	projectPath := writeProject(t, dir, map[string]any{
		"p.json": map[string]any{"activities": []any{
			map[string]any{"type": "count", "actions": []any{action("mark", map[string]any{"label": "x"})}},
		}},
	}, []map[string]any{{"path": "p.json"}})

	notifier := &recordingNotifier{}
	if _, err := newManager(t, cfg, testRegistry(&calls), project.WithNotifier(notifier)).Run(context.Background(), projectPath); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventRunCompleted {
		t.Fatalf("unexpected events %v", notifier.events)
	}
	if notifier.payloads[0]["project"] != "Demo" || notifier.payloads[0]["executed"] != 1 {
		t.Fatalf("unexpected payload %v", notifier.payloads[0])
	}

	failing := func(context.Context, *config.Config) []preflight.Result {
		return []preflight.Result{{Name: "Work directory", Detail: "read-only"}}
	}
	notifier = &recordingNotifier{}
	_, err := newManager(t, cfg, testRegistry(&calls), project.WithNotifier(notifier), project.WithPreflight(failing)).Run(context.Background(), projectPath)
	if err == nil {
		t.Fatal("expected preflight error")
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventError {
		t.Fatalf("unexpected events %v", notifier.events)
	}
}
