package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediaflow/internal/config"
)

func clearSecretEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDIAFLOW_LLM_API_KEY",
		"OPENROUTER_API_KEY",
		"MEDIAFLOW_STORAGE_ACCESS_KEY",
		"MEDIAFLOW_STORAGE_SECRET_KEY",
		"HF_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearSecretEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".cache", "mediaflow", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "mediaflow", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.LockPath() != filepath.Join(tempHome, ".local", "share", "mediaflow", "mediaflow.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Translation.SourceLanguage != "en" || cfg.Translation.TargetLanguage != "ro" {
		t.Fatalf("unexpected translation defaults: %+v", cfg.Translation)
	}
	if cfg.Speech.Model != "tts_models/en/ljspeech/vits" {
		t.Fatalf("unexpected speech model: %q", cfg.Speech.Model)
	}
	if cfg.Transcription.VADMethod != "silero" {
		t.Fatalf("expected silero VAD default, got %q", cfg.Transcription.VADMethod)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty LLM key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearSecretEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediaflow.toml")

	contents := `
[paths]
work_dir = "` + filepath.Join(tempDir, "work") + `"
log_dir = "` + filepath.Join(tempDir, "logs") + `"
state_dir = "` + filepath.Join(tempDir, "state") + `"

[logging]
format = "JSON"
level = "Debug"

[diffusion]
base_url = "http://gpu-box:7860/"
steps = 12

[translation]
target_language = "DE"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected resolved %q to exist, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.Diffusion.BaseURL != "http://gpu-box:7860" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Diffusion.BaseURL)
	}
	if cfg.Diffusion.Steps != 12 {
		t.Fatalf("expected steps 12, got %d", cfg.Diffusion.Steps)
	}
	if cfg.Translation.TargetLanguage != "de" {
		t.Fatalf("expected lowercased target language, got %q", cfg.Translation.TargetLanguage)
	}
	if cfg.Paths.StateDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	clearSecretEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediaflow.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		Storage struct {
			Endpoint  string `toml:"endpoint"`
			AccessKey string `toml:"access_key"`
			SecretKey string `toml:"secret_key"`
		} `toml:"storage"`
		Transcription struct {
			HFToken string `toml:"hf_token"`
		} `toml:"transcription"`
	}
	custom := payload{}
	custom.LLM.APIKey = "file-llm"
	custom.Storage.Endpoint = "minio.local:9000"
	custom.Storage.AccessKey = "file-access"
	custom.Storage.SecretKey = "file-secret"
	custom.Transcription.HFToken = "file-hf"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("MEDIAFLOW_STORAGE_ACCESS_KEY", "env-access")
	t.Setenv("MEDIAFLOW_STORAGE_SECRET_KEY", "env-secret")
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Storage.AccessKey != "env-access" || cfg.Storage.SecretKey != "env-secret" {
		t.Errorf("expected storage keys from env, got %q/%q", cfg.Storage.AccessKey, cfg.Storage.SecretKey)
	}
	if cfg.Transcription.HFToken != "env-hf" {
		t.Errorf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if got := cfg.TranslationLLM().APIKey; got != "env-llm" {
		t.Errorf("expected translation to inherit LLM key, got %q", got)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearSecretEnv(t)
	tempDir := t.TempDir()
	t.Chdir(t.TempDir())
	configPath := filepath.Join(tempDir, "mediaflow.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("MEDIAFLOW_LLM_API_KEY=dotenv-key\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MEDIAFLOW_LLM_API_KEY") })

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "dotenv-key" {
		t.Fatalf("expected key from .env, got %q", cfg.LLM.APIKey)
	}
}

func TestTranslationLLMPrefersTranslationSettings(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "shared"
	cfg.LLM.Model = "shared-model"
	cfg.Translation.Model = "translator"

	got := cfg.TranslationLLM()
	if got.APIKey != "shared" {
		t.Fatalf("expected shared key fallback, got %q", got.APIKey)
	}
	if got.Model != "translator" {
		t.Fatalf("expected translation model override, got %q", got.Model)
	}
	if got.BaseURL != cfg.LLM.BaseURL {
		t.Fatalf("expected base url fallback, got %q", got.BaseURL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_openrouter_api_key_here") {
		t.Fatalf("sample config missing placeholder LLM key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.WorkDir, "mediaflow") {
		t.Fatalf("expected work dir to contain mediaflow, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Diffusion.Steps != 30 {
		t.Fatalf("expected sample diffusion steps 30, got %d", cfg.Diffusion.Steps)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cfg = config.Default()
	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.Diffusion.Steps = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive diffusion steps")
	}

	cfg = config.Default()
	cfg.Video.FPS = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative video fps")
	}

	cfg = config.Default()
	cfg.Translation.TargetLanguage = "not a language"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid language tag")
	}

	cfg = config.Default()
	cfg.Storage.Endpoint = "minio.local:9000"
	cfg.Storage.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when storage endpoint set without bucket")
	}

	cfg = config.Default()
	cfg.Storage.Endpoint = "https://minio.local"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when storage endpoint carries a scheme")
	}
}
