package pipeline

import (
	"log/slog"
	"time"

	"dualsub/internal/config"
	"dualsub/internal/services/gemini"
	"dualsub/internal/services/llm"
	"dualsub/internal/services/whisperx"
	"dualsub/internal/summary"
	"dualsub/internal/translation"
)

// NewTranslator returns the adapter translation.provider selects. The client
// makes a single attempt per call; retries belong to the orchestrator.
func NewTranslator(cfg *config.Config, logger *slog.Logger) translation.Translator {
	source := cfg.Translation.SourceLanguage
	if cfg.Translation.Provider == "gemini" {
		return gemini.NewTranslator(newGeminiClient(cfg, logger), source)
	}
	return llm.NewTranslator(newLLMClient(cfg, llm.WithRetryMaxAttempts(1)), source)
}

// NewCompleter returns a free-text client for summaries. It keeps the
// client's own retry policy since nothing above it retries.
func NewCompleter(cfg *config.Config, logger *slog.Logger) summary.Completer {
	if cfg.Translation.Provider == "gemini" {
		return newGeminiClient(cfg, logger)
	}
	return newLLMClient(cfg)
}

// NewTranscriber wires the WhisperX adapter from config.
func NewTranscriber(cfg *config.Config, logger *slog.Logger) *whisperx.Service {
	return whisperx.NewService(whisperx.Config{
		Model:       cfg.Transcription.Model,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		KeepAudio:   cfg.Transcription.KeepAudio,
	}, cfg.FFmpegBinary(), cfg.UVXBinary(), logger)
}

// OrchestratorOptions maps [translation] onto orchestrator tuning.
func OrchestratorOptions(cfg *config.Config) translation.Options {
	t := cfg.Translation
	return translation.Options{
		Budget:         translation.Budget{MaxChars: t.BatchMaxChars, MaxCues: t.BatchMaxCues},
		Workers:        t.Workers,
		MaxAttempts:    t.MaxAttempts,
		BackoffBase:    time.Duration(t.BackoffBaseMillis) * time.Millisecond,
		BackoffMax:     time.Duration(t.BackoffMaxMillis) * time.Millisecond,
		AttemptTimeout: time.Duration(t.AttemptTimeoutSeconds) * time.Second,
	}
}

func newLLMClient(cfg *config.Config, opts ...llm.Option) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, opts...)
}

func newGeminiClient(cfg *config.Config, logger *slog.Logger) *gemini.Client {
	return gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
	}, gemini.WithLogger(logger))
}
