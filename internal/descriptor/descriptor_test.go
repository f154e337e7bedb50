package descriptor_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediaflow/internal/descriptor"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestActionSplitsReservedKeys(t *testing.T) {
	var action descriptor.Action
	payload := `{"command": " write-text ", "enabled": false, "text": "hello", "text-name": "greeting"}`
	if err := json.Unmarshal([]byte(payload), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if action.Command != "write-text" {
		t.Fatalf("expected trimmed command, got %q", action.Command)
	}
	if action.IsEnabled() {
		t.Fatal("expected action to be disabled")
	}
	if action.Params.Has("command") || action.Params.Has("enabled") {
		t.Fatalf("reserved keys leaked into params: %v", action.Params.Keys())
	}
	if value, ok := action.Params.String("text-name"); !ok || value != "greeting" {
		t.Fatalf("unexpected text-name: %q %v", value, ok)
	}
}

func TestActionEnabledDefaultsTrue(t *testing.T) {
	var action descriptor.Action
	if err := json.Unmarshal([]byte(`{"command": "create-silence"}`), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !action.IsEnabled() {
		t.Fatal("expected missing enabled to mean enabled")
	}
}

func TestActionEnabledAcceptsTruthyValues(t *testing.T) {
	for _, tc := range []struct {
		value   string
		enabled bool
	}{
		{`true`, true},
		{`"yes"`, true},
		{`"On"`, true},
		{`1`, true},
		{`"no"`, false},
		{`"false"`, false},
		{`0`, false},
		{`null`, true},
	} {
		var action descriptor.Action
		if err := json.Unmarshal([]byte(`{"command": "write-text", "enabled": `+tc.value+`}`), &action); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.value, err)
		}
		if action.Invalid != nil {
			t.Fatalf("%s: unexpected invalid action: %v", tc.value, action.Invalid)
		}
		if action.IsEnabled() != tc.enabled {
			t.Fatalf("%s: expected enabled=%v", tc.value, tc.enabled)
		}
	}
}

func TestMalformedActionIsMarkedInvalid(t *testing.T) {
	for _, payload := range []string{
		`{"command": "write-text", "enabled": "maybe"}`,
		`{"command": 42}`,
		`{"command": "write-text", "enabled": [true]}`,
		`"write-text"`,
	} {
		var action descriptor.Action
		if err := json.Unmarshal([]byte(payload), &action); err != nil {
			t.Fatalf("%s: expected lenient decode, got %v", payload, err)
		}
		if !errors.Is(action.Invalid, descriptor.ErrInvalidAction) {
			t.Fatalf("%s: expected ErrInvalidAction, got %v", payload, action.Invalid)
		}
	}
}

func TestMalformedActivityKeepsPipeline(t *testing.T) {
	pipeline, err := descriptor.ParsePipeline([]byte(`{"subproject-title": "Mixed", "activities": [
		{"name": "good", "type": "text", "actions": [{"command": "write-text"}]},
		{"name": "bad", "type": "text", "actions": "write-text"},
		{"name": "bad action", "type": "text", "actions": [{"command": "write-text", "enabled": "maybe"}, {"command": "concat-text"}]}
	]}`))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	if len(pipeline.Activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(pipeline.Activities))
	}
	if pipeline.Activities[0].Invalid != nil || len(pipeline.Activities[0].Actions) != 1 {
		t.Fatalf("unexpected first activity %+v", pipeline.Activities[0])
	}
	bad := pipeline.Activities[1]
	if !errors.Is(bad.Invalid, descriptor.ErrInvalidActivity) || bad.Name != "bad" || bad.Type != "text" {
		t.Fatalf("unexpected malformed activity %+v", bad)
	}
	third := pipeline.Activities[2]
	if third.Invalid != nil || len(third.Actions) != 2 {
		t.Fatalf("unexpected third activity %+v", third)
	}
	if third.Actions[0].Invalid == nil || third.Actions[1].Invalid != nil {
		t.Fatalf("expected only the first action invalid: %+v", third.Actions)
	}
}

func TestActionDecodeKeepsDefaults(t *testing.T) {
	action, err := descriptor.NewAction("create-silence", map[string]any{"duration": 2.5})
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}
	params := struct {
		Duration float64 `json:"duration"`
		Name     string  `json:"audio-name"`
	}{Duration: 1, Name: "fallback"}
	if err := action.Decode(&params); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if params.Duration != 2.5 {
		t.Fatalf("expected duration 2.5, got %v", params.Duration)
	}
	if params.Name != "fallback" {
		t.Fatalf("expected default name to survive, got %q", params.Name)
	}
}

func TestActionDecodeRejectsWrongTypes(t *testing.T) {
	action, err := descriptor.NewAction("create-silence", map[string]any{"duration": "long"})
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}
	var params struct {
		Duration float64 `json:"duration"`
	}
	if err := action.Decode(&params); err == nil {
		t.Fatal("expected decode error for string duration")
	}
}

func TestActionMarshalRoundTripKeepsFlatShape(t *testing.T) {
	action, err := descriptor.NewAction("write-text", map[string]any{"text": "hi", "enabled": true})
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}
	data, err := json.Marshal(action)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	if flat["command"] != "write-text" || flat["text"] != "hi" || flat["enabled"] != true {
		t.Fatalf("unexpected flat shape: %v", flat)
	}
}

func TestParamsMergeOverrides(t *testing.T) {
	base := descriptor.Params{"codec": json.RawMessage(`"libx264"`), "fps": json.RawMessage(`60`)}
	merged := base.Merge(descriptor.Params{"fps": json.RawMessage(`24`)})
	var out struct {
		Codec string `json:"codec"`
		FPS   int    `json:"fps"`
	}
	if err := merged.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Codec != "libx264" || out.FPS != 24 {
		t.Fatalf("unexpected merge result: %+v", out)
	}
	if string(base["fps"]) != "60" {
		t.Fatal("merge mutated the receiver")
	}
}

func TestLoadProjectResolvesRelativePipelines(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.json")
	writeFile(t, projectPath, `{
  "project-title": "Demo",
  "pipelines": [
    {"path": "pipelines/intro.json"},
    {"path": "/abs/outro.json", "enabled": false}
  ]
}`)

	project, err := descriptor.LoadProject(projectPath)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if project.DisplayTitle() != "Demo" {
		t.Fatalf("unexpected title %q", project.DisplayTitle())
	}
	if len(project.Pipelines) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(project.Pipelines))
	}
	if want := filepath.Join(dir, "pipelines", "intro.json"); project.Pipelines[0].Path != want {
		t.Fatalf("expected %q, got %q", want, project.Pipelines[0].Path)
	}
	if !project.Pipelines[0].IsEnabled() {
		t.Fatal("expected first pipeline enabled by default")
	}
	if project.Pipelines[1].Path != "/abs/outro.json" || project.Pipelines[1].IsEnabled() {
		t.Fatalf("unexpected second pipeline: %+v", project.Pipelines[1])
	}
}

func TestLoadPipelineJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	writeFile(t, path, `{
  "subproject-title": "Intro",
  "activities": [
    {"name": "Narration", "type": "tts", "defaults": {"language": "en"},
     "actions": [{"command": "generate-speech", "text": "hello", "audio-name": "intro"}]},
    {"type": "text", "actions": []}
  ]
}`)

	pipeline, err := descriptor.LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if pipeline.Source != path {
		t.Fatalf("expected source %q, got %q", path, pipeline.Source)
	}
	if len(pipeline.Activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(pipeline.Activities))
	}
	first := pipeline.Activities[0]
	if first.Type != "tts" || first.Label(0) != "Narration" {
		t.Fatalf("unexpected first activity: %+v", first)
	}
	if lang, _ := first.Defaults.String("language"); lang != "en" {
		t.Fatalf("unexpected defaults: %v", first.Defaults)
	}
	if first.Actions[0].Command != "generate-speech" {
		t.Fatalf("unexpected action: %+v", first.Actions[0])
	}
	if got := pipeline.Activities[1].Label(1); got != "Step 2" {
		t.Fatalf("expected positional label, got %q", got)
	}
}

func TestLoadPipelineYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	writeFile(t, path, `subproject-title: Visuals
activities:
  - type: sdp
    actions:
      - command: color-to-image
        enabled: false
        color: navy
        width: 64
`)

	pipeline, err := descriptor.LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if pipeline.DisplayTitle() != "Visuals" {
		t.Fatalf("unexpected title %q", pipeline.DisplayTitle())
	}
	action := pipeline.Activities[0].Actions[0]
	if action.IsEnabled() {
		t.Fatal("expected yaml action to be disabled")
	}
	var params struct {
		Color string `json:"color"`
		Width int    `json:"width"`
	}
	if err := action.Decode(&params); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if params.Color != "navy" || params.Width != 64 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestLoadPipelineMissingFile(t *testing.T) {
	_, err := descriptor.LoadPipeline(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, descriptor.ErrDescriptorNotFound) {
		t.Fatalf("expected ErrDescriptorNotFound, got %v", err)
	}
}

func TestDefaultTitles(t *testing.T) {
	if got := (descriptor.Project{}).DisplayTitle(); got != "Unnamed Project" {
		t.Fatalf("unexpected project placeholder %q", got)
	}
	if got := (descriptor.Pipeline{}).DisplayTitle(); got != "Unnamed Subproject" {
		t.Fatalf("unexpected pipeline placeholder %q", got)
	}
}
