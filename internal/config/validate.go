package config

import (
	"errors"
	"fmt"
	"strings"

	"dualsub/internal/bilingual"
	"dualsub/internal/burnin"
	"dualsub/internal/cue"
	"dualsub/internal/language"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by ValidateProvider because most commands never translate.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	if err := c.validateBurn(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	switch t.Provider {
	case "openrouter", "gemini":
	default:
		return fmt.Errorf("translation.provider must be openrouter or gemini (got %q)", t.Provider)
	}
	canonical, err := language.Canonical(t.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translation.target_language must be a BCP 47 tag: %w", err)
	}
	if !language.IsFileMarker(canonical) {
		return fmt.Errorf("translation.target_language must look like en or zh-CN (got %q)", t.TargetLanguage)
	}
	c.Translation.TargetLanguage = canonical
	if t.SourceLanguage != "auto" {
		if canonical, err = language.Canonical(t.SourceLanguage); err != nil {
			return fmt.Errorf("translation.source_language must be a BCP 47 tag or auto: %w", err)
		}
		c.Translation.SourceLanguage = canonical
	}
	if err := ensurePositiveMap(map[string]int{
		"translation.batch_max_chars":         t.BatchMaxChars,
		"translation.batch_max_cues":          t.BatchMaxCues,
		"translation.workers":                 t.Workers,
		"translation.max_attempts":            t.MaxAttempts,
		"translation.backoff_base_ms":         t.BackoffBaseMillis,
		"translation.backoff_max_ms":          t.BackoffMaxMillis,
		"translation.attempt_timeout_seconds": t.AttemptTimeoutSeconds,
	}); err != nil {
		return err
	}
	if t.BackoffMaxMillis < t.BackoffBaseMillis {
		return errors.New("translation.backoff_max_ms must be >= translation.backoff_base_ms")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
		return nil
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote (got %q)", c.Transcription.VADMethod)
	}
}

func (c *Config) validateOutput() error {
	for _, name := range c.Output.Formats {
		if _, err := cue.ParseFormat(name); err != nil {
			return fmt.Errorf("output.formats must contain only srt, vtt or txt: %w", err)
		}
	}
	if _, err := bilingual.ParseOrder(c.Output.BilingualOrder); err != nil {
		return fmt.Errorf("output.bilingual_order must be original_first, translated_first or interleaved: %w", err)
	}
	return nil
}

func (c *Config) validateStyle() error {
	if _, err := burnin.NewStyleSpec(c.StyleOptions()); err != nil {
		var styleErr *burnin.StyleValidationError
		if errors.As(err, &styleErr) {
			return fmt.Errorf("style.%s must be valid: %s", snakeCase(styleErr.Field), styleErr.Reason)
		}
		return err
	}
	return nil
}

func (c *Config) validateBurn() error {
	for _, name := range c.Burn.KindPreference {
		if _, err := burnin.ParseKind(name); err != nil {
			return fmt.Errorf("burn.kind_preference must list original, translated or bilingual: %w", err)
		}
	}
	if c.Burn.CRF < 0 || c.Burn.CRF > 51 {
		return errors.New("burn.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
}

// ValidateProvider checks that credentials exist for the configured
// translation provider.
func (c *Config) ValidateProvider() error {
	switch c.Translation.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return c.missingKey("gemini.api_key", "GEMINI_API_KEY")
		}
	default:
		if c.LLM.APIKey == "" {
			return c.missingKey("llm.api_key", "OPENROUTER_API_KEY")
		}
	}
	return nil
}

func (c *Config) missingKey(field, env string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'dualsub config init')", field, env, defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	for _, key := range sortedStrings(keys) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
