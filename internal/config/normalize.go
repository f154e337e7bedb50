package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSpeech()
	c.normalizeTranscription()
	c.normalizeDiffusion()
	c.normalizeVideo()
	c.normalizeLLM()
	c.normalizeTranslation()
	c.normalizeStorage()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, defaultFFmpegBinary)
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, defaultFFprobeBinary)
	c.Tools.UVX = defaultString(c.Tools.UVX, defaultUVXBinary)
	c.Tools.TTS = defaultString(c.Tools.TTS, defaultTTSBinary)
}

func (c *Config) normalizeSpeech() {
	c.Speech.Model = defaultString(c.Speech.Model, defaultSpeechModel)
	c.Speech.Language = strings.ToLower(defaultString(c.Speech.Language, defaultSpeechLanguage))
	c.Speech.Speaker = strings.TrimSpace(c.Speech.Speaker)
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = defaultString(c.Transcription.Model, defaultTranscriptionModel)
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Transcription.VADMethod = strings.ToLower(defaultString(c.Transcription.VADMethod, defaultTranscriptionVAD))
	if value := envValue(envHuggingFaceToken); value != "" {
		c.Transcription.HFToken = value
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
}

func (c *Config) normalizeDiffusion() {
	c.Diffusion.BaseURL = strings.TrimRight(defaultString(c.Diffusion.BaseURL, defaultDiffusionBaseURL), "/")
	c.Diffusion.Sampler = defaultString(c.Diffusion.Sampler, defaultDiffusionSampler)
	c.Diffusion.NegativePrompt = strings.TrimSpace(c.Diffusion.NegativePrompt)
}

func (c *Config) normalizeVideo() {
	c.Video.Codec = defaultString(c.Video.Codec, defaultVideoCodec)
	c.Video.Font = defaultString(c.Video.Font, defaultVideoFont)
	if c.Video.FPS == 0 {
		c.Video.FPS = defaultVideoFPS
	}
}

func (c *Config) normalizeLLM() {
	if value := envValue(envLLMAPIKey); value != "" {
		c.LLM.APIKey = value
	} else if value := envValue(envOpenRouterAPIKey); value != "" {
		c.LLM.APIKey = value
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = defaultString(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)
	c.LLM.Referer = defaultString(c.LLM.Referer, defaultLLMReferer)
	c.LLM.Title = defaultString(c.LLM.Title, defaultLLMTitle)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	c.Translation.SourceLanguage = strings.ToLower(defaultString(c.Translation.SourceLanguage, defaultTranslationSource))
	c.Translation.TargetLanguage = strings.ToLower(defaultString(c.Translation.TargetLanguage, defaultTranslationTarget))
}

func (c *Config) normalizeStorage() {
	if value := envValue(envStorageAccessKey); value != "" {
		c.Storage.AccessKey = value
	}
	if value := envValue(envStorageSecretKey); value != "" {
		c.Storage.SecretKey = value
	}
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile == "" {
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func envValue(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
