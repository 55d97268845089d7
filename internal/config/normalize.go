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
	c.normalizeTranslation()
	c.normalizeLLM()
	c.normalizeGemini()
	c.normalizeTranscription()
	c.normalizeOutput()
	c.normalizeStyle()
	c.normalizeBurn()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	if t.Provider == "" {
		t.Provider = defaultProvider
	}
	t.SourceLanguage = strings.TrimSpace(t.SourceLanguage)
	if t.SourceLanguage == "" {
		t.SourceLanguage = defaultSourceLanguage
	}
	t.TargetLanguage = strings.TrimSpace(t.TargetLanguage)
	if t.TargetLanguage == "" {
		t.TargetLanguage = defaultTargetLanguage
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Model = strings.TrimSpace(t.Model)
	if t.Model == "" {
		t.Model = defaultTranscriptionModel
	}
	t.Language = strings.TrimSpace(t.Language)
	if t.Language == "" {
		t.Language = defaultTranscriptionLanguage
	}
	t.VADMethod = strings.ToLower(strings.TrimSpace(t.VADMethod))
	if t.VADMethod == "" {
		t.VADMethod = defaultVADMethod
	}
	t.HFToken = strings.TrimSpace(t.HFToken)
	if t.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeOutput() {
	c.Output.Formats = normalizeList(c.Output.Formats)
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = append([]string(nil), defaultFormats...)
	}
	c.Output.BilingualOrder = strings.ToLower(strings.TrimSpace(c.Output.BilingualOrder))
	if c.Output.BilingualOrder == "" {
		c.Output.BilingualOrder = defaultBilingualOrder
	}
}

func (c *Config) normalizeStyle() {
	c.Style.FontName = strings.TrimSpace(c.Style.FontName)
	if c.Style.FontName == "" {
		c.Style.FontName = defaultFontName
	}
	c.Style.Position = strings.ToLower(strings.TrimSpace(c.Style.Position))
	if c.Style.Position == "" {
		c.Style.Position = defaultPosition
	}
	c.Style.FontColor = strings.TrimSpace(c.Style.FontColor)
	if c.Style.FontColor == "" {
		c.Style.FontColor = defaultFontColor
	}
	c.Style.OutlineColor = strings.TrimSpace(c.Style.OutlineColor)
	if c.Style.OutlineColor == "" {
		c.Style.OutlineColor = defaultOutlineColor
	}
}

func (c *Config) normalizeBurn() {
	c.Burn.KindPreference = normalizeList(c.Burn.KindPreference)
	if len(c.Burn.KindPreference) == 0 {
		c.Burn.KindPreference = append([]string(nil), defaultKindPreference...)
	}
	c.Burn.VideoCodec = strings.TrimSpace(c.Burn.VideoCodec)
	if c.Burn.VideoCodec == "" {
		c.Burn.VideoCodec = defaultVideoCodec
	}
	c.Burn.AudioCodec = strings.TrimSpace(c.Burn.AudioCodec)
	if c.Burn.AudioCodec == "" {
		c.Burn.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("DUALSUB_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	origins := make([]string, 0, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.API.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
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

// normalizeList lowercases, trims, and dedupes values, keeping first-seen order.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
