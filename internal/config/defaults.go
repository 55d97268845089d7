package config

const (
	defaultConfigPath            = "~/.config/dualsub/config.toml"
	defaultWorkDir               = "~/.cache/dualsub/work"
	defaultStateDir              = "~/.local/share/dualsub"
	defaultProvider              = "openrouter"
	defaultSourceLanguage        = "en"
	defaultTargetLanguage        = "zh-CN"
	defaultBatchMaxChars         = 2000
	defaultBatchMaxCues          = 40
	defaultWorkers               = 4
	defaultMaxAttempts           = 5
	defaultBackoffBaseMillis     = 1000
	defaultBackoffMaxMillis      = 30000
	defaultAttemptTimeoutSeconds = 60
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/dualsub/dualsub"
	defaultLLMTitle              = "dualsub"
	defaultLLMTimeoutSeconds     = 60
	defaultGeminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel           = "gemini-2.0-flash"
	defaultTranscriptionModel    = "base"
	defaultTranscriptionLanguage = "en"
	defaultVADMethod             = "silero"
	defaultBilingualOrder        = "original_first"
	defaultFontName              = "Arial"
	defaultFontSize              = 28
	defaultPosition              = "bottom"
	defaultFontColor             = "white"
	defaultOutlineColor          = "black"
	defaultShadowRadius          = 1.0
	defaultVideoCodec            = "libx264"
	defaultCRF                   = 18
	defaultAudioCodec            = "copy"
	defaultAPIBind               = "127.0.0.1:7488"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

var (
	defaultFormats        = []string{"srt", "vtt", "txt"}
	defaultKindPreference = []string{"bilingual", "translated", "original"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
		},
		Translation: Translation{
			Provider:              defaultProvider,
			SourceLanguage:        defaultSourceLanguage,
			TargetLanguage:        defaultTargetLanguage,
			BatchMaxChars:         defaultBatchMaxChars,
			BatchMaxCues:          defaultBatchMaxCues,
			Workers:               defaultWorkers,
			MaxAttempts:           defaultMaxAttempts,
			BackoffBaseMillis:     defaultBackoffBaseMillis,
			BackoffMaxMillis:      defaultBackoffMaxMillis,
			AttemptTimeoutSeconds: defaultAttemptTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Gemini: Gemini{
			BaseURL: defaultGeminiBaseURL,
			Model:   defaultGeminiModel,
		},
		Transcription: Transcription{
			Model:     defaultTranscriptionModel,
			Language:  defaultTranscriptionLanguage,
			VADMethod: defaultVADMethod,
		},
		Output: Output{
			Formats:        append([]string(nil), defaultFormats...),
			BilingualOrder: defaultBilingualOrder,
		},
		Style: Style{
			FontName:     defaultFontName,
			FontSize:     defaultFontSize,
			Position:     defaultPosition,
			FontColor:    defaultFontColor,
			OutlineColor: defaultOutlineColor,
			ShadowRadius: defaultShadowRadius,
		},
		Burn: Burn{
			KindPreference: append([]string(nil), defaultKindPreference...),
			VideoCodec:     defaultVideoCodec,
			CRF:            defaultCRF,
			AudioCodec:     defaultAudioCodec,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
