package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"dualsub/internal/config"
	"dualsub/internal/deps"
	"dualsub/internal/services/gemini"
	"dualsub/internal/services/llm"
)

const providerCheckTimeout = 30 * time.Second

// CheckLLM verifies that the chat completion API is reachable and the key is
// valid. It makes a single attempt.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, providerCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeProviderError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckGemini verifies the Gemini key and model with a tiny prompt.
func CheckGemini(ctx context.Context, name string, cfg config.Gemini) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, providerCheckTimeout)
	defer cancel()

	client := gemini.NewClient(gemini.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	if _, err := client.Complete(checkCtx, "You answer with one word.", "Reply with OK."); err != nil {
		return Result{Name: name, Detail: summarizeProviderError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTranslationProvider checks whichever backend translation.provider
// selects.
func CheckTranslationProvider(ctx context.Context, cfg *config.Config) Result {
	if cfg.Translation.Provider == "gemini" {
		return CheckGemini(ctx, "Gemini API", cfg.Gemini)
	}
	return CheckLLM(ctx, "Translation LLM", cfg.LLM)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// transcribe marks uvx as required. The libass probe is added when burn-in is
// enabled.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, transcribe bool) []deps.Status {
	statuses := deps.CheckBinaries(deps.Requirements(cfg.FFmpegBinary(), cfg.UVXBinary(), transcribe))
	if cfg.Burn.Enabled {
		filter := deps.CheckSubtitlesFilter(ctx, cfg.FFmpegBinary())
		filter.Optional = false
		statuses = append(statuses, filter)
	}
	return statuses
}

// summarizeProviderError produces a human-readable summary for health check failures.
func summarizeProviderError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
