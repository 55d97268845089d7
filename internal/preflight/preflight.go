package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dualsub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the checks RunAll performs.
type Options struct {
	// OutputDir overrides paths.output_dir, for runs that write next to
	// their input.
	OutputDir string
	// Translate adds the provider reachability check.
	Translate bool
}

// RunAll executes the filesystem checks plus the provider check when the run
// translates.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	output := strings.TrimSpace(opts.OutputDir)
	if output == "" {
		output = cfg.Paths.OutputDir
	}
	if output != "" {
		results = append(results, CheckDirectoryAccess("Output directory", output))
	}

	if opts.Translate {
		results = append(results, CheckTranslationProvider(ctx, cfg))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins failed checks into one error, or returns nil.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
	}
	return errors.Join(errs...)
}
