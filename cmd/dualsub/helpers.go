package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"dualsub/internal/artifacts"
	"dualsub/internal/config"
	"dualsub/internal/cue"
	"dualsub/internal/deps"
	"dualsub/internal/fileutil"
	"dualsub/internal/journal"
	"dualsub/internal/language"
	"dualsub/internal/preflight"
	"dualsub/internal/services"
	"dualsub/internal/subformat"
	"dualsub/internal/translation"
)

// abandonedAfter is how long a run may stay "running" before the journal
// treats it as left behind by a killed process.
const abandonedAfter = 24 * time.Hour

func readSubtitle(path, lang string) (cue.Document, error) {
	doc, err := artifacts.ReadDocument(afero.NewOsFs(), path, subformat.WithLanguage(lang))
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return cue.Document{}, services.Wrap(services.ErrNotFound, "", "read subtitle", path, err)
	}
	return cue.Document{}, services.Wrap(services.ErrValidation, "", "read subtitle", path, err)
}

// writeOutput writes data atomically, refusing to replace input.
func writeOutput(path, input, data string) error {
	if samePath(path, input) {
		return services.Wrap(services.ErrValidation, "", "write", path, errors.New("output would overwrite the input"))
	}
	if err := fileutil.WriteFileAtomic(afero.NewOsFs(), path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// outputDir picks the flag value, then paths.output_dir, then the directory
// of input.
func outputDir(flag string, cfg *config.Config, input string) (string, error) {
	dir := strings.TrimSpace(flag)
	if dir == "" && cfg != nil {
		dir = cfg.Paths.OutputDir
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Abs(dir)
}

// targetLanguage canonicalizes a target tag and checks it can appear in a
// file name.
func targetLanguage(flag string, cfg *config.Config) (string, error) {
	value := strings.TrimSpace(flag)
	if value == "" {
		value = cfg.Translation.TargetLanguage
	}
	target, err := language.Canonical(value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "target language", value, err)
	}
	if !language.IsFileMarker(target) {
		return "", services.Wrap(services.ErrValidation, "", "target language", target,
			errors.New("must be a two-letter code with an optional region, like zh-CN"))
	}
	return target, nil
}

func translationError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	marker := services.ErrTransient
	if translation.KindOf(err) == translation.KindPermanent {
		marker = services.ErrExternalTool
	}
	return services.Wrap(marker, "", "translate", "", err)
}

// checkReady runs preflight and, when tools are needed, the binary checks.
func checkReady(ctx context.Context, cfg *config.Config, opts preflight.Options, transcribe, encode bool) error {
	if opts.Translate {
		if err := cfg.ValidateProvider(); err != nil {
			return services.Wrap(services.ErrConfiguration, "", "preflight", "", err)
		}
	}
	if err := preflight.Err(preflight.RunAll(ctx, cfg, opts)); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "preflight", "", err)
	}
	if !transcribe && !encode {
		return nil
	}
	statuses := deps.CheckBinaries(deps.Requirements(cfg.FFmpegBinary(), cfg.UVXBinary(), transcribe))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "", "preflight", "",
			fmt.Errorf("missing required tools: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// markAbandoned fails journal runs a killed process left running.
func markAbandoned(ctx context.Context, store *journal.Store) {
	_, _ = store.MarkAbandoned(ctx, time.Now().Add(-abandonedAfter))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
