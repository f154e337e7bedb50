package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaflow/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		workDir:    filepath.Join(base, "work"),
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
log_dir = %q
state_dir = %q

[logging]
level = "error"
run_logs = true

[history]
enabled = true
`, env.workDir, filepath.Join(base, "logs"), filepath.Join(base, "state"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func writeTextProject(t *testing.T, dir, output string, extra ...map[string]any) string {
	t.Helper()
	activities := []any{
		map[string]any{"name": "write", "type": "text", "actions": []any{
			map[string]any{"command": "write-text", "text": "first", "text-name": "a"},
			map[string]any{"command": "write-text", "text": "second", "text-name": "b"},
		}},
		map[string]any{"name": "join", "type": "text", "actions": []any{
			map[string]any{"command": "concat-text", "text-names": []string{"a", "b"}, "separator": " ", "output-text-path": output},
		}},
	}
	for _, activity := range extra {
		activities = append(activities, activity)
	}
	testsupport.WriteJSON(t, filepath.Join(dir, "pipelines", "text.json"), map[string]any{
		"subproject-title": "Text",
		"activities":       activities,
	})
	projectPath := filepath.Join(dir, "project.json")
	testsupport.WriteJSON(t, projectPath, map[string]any{
		"project-title": "CLI",
		"pipelines":     []any{map[string]any{"path": "pipelines/text.json"}},
	})
	return projectPath
}

func TestRunAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.baseDir, "out", "joined.txt")
	projectPath := writeTextProject(t, env.baseDir, output)

	out, err := runCLI(t, "-c", env.configPath, "run", "--skip-preflight", projectPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Actions: 3 executed, 0 skipped, 0 failed")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "first second" {
		t.Fatalf("unexpected output %q", data)
	}

	logs, err := filepath.Glob(filepath.Join(env.baseDir, "logs", "run_*.log"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one run log, got %v (err=%v)", logs, err)
	}

	out, err = runCLI(t, "-c", env.configPath, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "CLI")
	requireContains(t, out, "succeeded")
}

func TestRunFailureExitsWithError(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.baseDir, "out", "joined.txt")
	projectPath := writeTextProject(t, env.baseDir, output,
		map[string]any{"name": "bogus", "type": "nope", "actions": []any{}},
	)

	out, err := runCLI(t, "-c", env.configPath, "run", "--skip-preflight", projectPath)
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("expected errRunFailed, got %v", err)
	}
	requireContains(t, out, "Skipped or aborted units: 1")
	if _, statErr := os.Stat(output); statErr != nil {
		t.Fatalf("expected remaining activities to complete: %v", statErr)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, "-c", env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestValidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	projectPath := writeTextProject(t, env.baseDir, filepath.Join(env.baseDir, "out.txt"))

	out, err := runCLI(t, "-c", env.configPath, "validate", projectPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "Project valid")

	badPath := writeTextProject(t, t.TempDir(), filepath.Join(env.baseDir, "out.txt"),
		map[string]any{"name": "typo", "type": "text", "actions": []any{
			map[string]any{"command": "write-txt"},
		}},
	)
	out, err = runCLI(t, "-c", env.configPath, "validate", badPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, out, "write-txt")
}

func TestHandlersCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, "-c", env.configPath, "handlers")
	if err != nil {
		t.Fatalf("handlers: %v", err)
	}
	for _, want := range []string{"gtrans", "moviepy", "sdp", "storage", "text", "tts", "concat-text", "generate-video", "with-speech-bubbles"} {
		requireContains(t, out, want)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "-c", env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = runCLI(t, "config", "init", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, "-c", env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestRunHelpExplainsPipelinePaths(t *testing.T) {
	out, err := runCLI(t, "run", "--help")
	if err != nil {
		t.Fatalf("run --help: %v", err)
	}
	requireContains(t, out, "directory that contains the project file")
}
