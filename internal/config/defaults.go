package config

const (
	defaultConfigPath         = "~/.config/mediaflow/config.toml"
	defaultLogDir             = "~/.local/share/mediaflow/logs"
	defaultStateDir           = "~/.local/share/mediaflow"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultSpeechModel        = "tts_models/en/ljspeech/vits"
	defaultSpeechLanguage     = "en"
	defaultTranscriptionModel = "large-v3"
	defaultTranscriptionVAD   = "silero"
	defaultDiffusionBaseURL   = "http://127.0.0.1:7860"
	defaultDiffusionSteps     = 30
	defaultDiffusionCFGScale  = 7.0
	defaultDiffusionSize      = 512
	defaultDiffusionSampler   = "Euler a"
	defaultDiffusionTimeout   = 300
	defaultVideoCodec         = "libx264"
	defaultVideoFPS           = 60
	defaultVideoFont          = "Arial"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/mediaflow/mediaflow"
	defaultLLMTitle           = "mediaflow"
	defaultLLMTimeoutSeconds  = 60
	defaultTranslationSource  = "en"
	defaultTranslationTarget  = "ro"
	defaultStorageBucket      = "mediaflow"
	defaultHistoryEnabled     = true
	defaultRunLogsEnabled     = true
	defaultNtfyTimeout        = 10
	envLLMAPIKey              = "MEDIAFLOW_LLM_API_KEY"
	envOpenRouterAPIKey       = "OPENROUTER_API_KEY"
	envStorageAccessKey       = "MEDIAFLOW_STORAGE_ACCESS_KEY"
	envStorageSecretKey       = "MEDIAFLOW_STORAGE_SECRET_KEY"
	envHuggingFaceToken       = "HF_TOKEN"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultUVXBinary          = "uvx"
	defaultTTSBinary          = "tts"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir(),
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RunLogs:       defaultRunLogsEnabled,
			RetentionDays: defaultLogRetentionDays,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			UVX:     defaultUVXBinary,
			TTS:     defaultTTSBinary,
		},
		Speech: Speech{
			Model:    defaultSpeechModel,
			Language: defaultSpeechLanguage,
		},
		Transcription: Transcription{
			Model:     defaultTranscriptionModel,
			VADMethod: defaultTranscriptionVAD,
		},
		Diffusion: Diffusion{
			BaseURL:        defaultDiffusionBaseURL,
			Steps:          defaultDiffusionSteps,
			CFGScale:       defaultDiffusionCFGScale,
			Width:          defaultDiffusionSize,
			Height:         defaultDiffusionSize,
			Sampler:        defaultDiffusionSampler,
			TimeoutSeconds: defaultDiffusionTimeout,
		},
		Video: Video{
			Codec: defaultVideoCodec,
			FPS:   defaultVideoFPS,
			Font:  defaultVideoFont,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Translation: Translation{
			SourceLanguage: defaultTranslationSource,
			TargetLanguage: defaultTranslationTarget,
		},
		Storage: Storage{
			Bucket: defaultStorageBucket,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
