package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/artifacts"
	"dualsub/internal/burnin"
	"dualsub/internal/pipeline"
	"dualsub/internal/preflight"
	"dualsub/internal/services"
	"dualsub/internal/subformat"
)

type artifactView struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"`
	Format   string `json:"format,omitempty"`
	Bytes    int    `json:"bytes"`
}

type processOutput struct {
	RunID      string         `json:"run_id"`
	LogPath    string         `json:"log_path,omitempty"`
	OutputDir  string         `json:"output_dir"`
	Cues       int            `json:"cues"`
	Dropped    int            `json:"dropped_segments,omitempty"`
	Artifacts  []artifactView `json:"artifacts"`
	BurnedPath string         `json:"burned_path,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		target        string
		sourceLang    string
		output        string
		video         string
		burn          bool
		kind          string
		withSummary   bool
		jsonOutput    bool
		skipPreflight bool
	)

	cmd := &cobra.Command{
		Use:   "process <video|subtitle>",
		Short: "Transcribe or load subtitles, translate, merge and optionally burn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			source := args[0]

			req := pipeline.Request{
				Source:         source,
				Video:          video,
				OutputDir:      output,
				SourceLanguage: sourceLang,
				TargetLanguage: target,
				Summary:        withSummary,
			}
			if cmd.Flags().Changed("burn") {
				req.Burn = &burn
			}
			if strings.TrimSpace(kind) != "" {
				parsed, err := burnin.ParseKind(kind)
				if err != nil {
					return services.Wrap(services.ErrValidation, "", "process", "--kind", err)
				}
				req.BurnKind = parsed
			}

			if !skipPreflight {
				_, subErr := subformat.FormatFromPath(source)
				transcribe := subErr != nil
				encode := cfg.Burn.Enabled
				if req.Burn != nil {
					encode = *req.Burn
				}
				dir, err := outputDir(output, cfg, source)
				if err != nil {
					return err
				}
				// The run creates it anyway; preflight checks it is writable.
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return services.Wrap(services.ErrConfiguration, "", "preflight", dir, err)
				}
				opts := preflight.Options{OutputDir: dir, Translate: true}
				if err := checkReady(cmd.Context(), cfg, opts, transcribe, encode); err != nil {
					return err
				}
			}

			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()
			markAbandoned(cmd.Context(), store)

			runner := pipeline.New(cfg, pipeline.WithLogger(ctx.loggerValue()), pipeline.WithJournal(store))
			res, runErr := runner.Run(cmd.Context(), req)

			view := processView(res, runErr)
			if jsonOutput {
				if err := writeJSON(cmd, view); err != nil {
					return err
				}
				return runErr
			}
			printProcess(cmd.OutOrStdout(), view)
			return runErr
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target language (default: translation.target_language)")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Source language (default: translation.source_language)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: paths.output_dir, then next to the source)")
	cmd.Flags().StringVar(&video, "video", "", "Video to burn when the source is a subtitle file")
	cmd.Flags().BoolVar(&burn, "burn", false, "Burn subtitles into the video (overrides burn.enabled)")
	cmd.Flags().StringVar(&kind, "kind", "", "Subtitle kind to burn: bilingual, translated or original")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "Also write <base>.summary.md")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory, provider and tool checks")
	return cmd
}

func processView(res *pipeline.Result, runErr error) processOutput {
	view := processOutput{Artifacts: []artifactView{}}
	if runErr != nil {
		view.Error = runErr.Error()
	}
	if res == nil {
		return view
	}
	view.RunID = res.RunID
	view.LogPath = res.LogPath
	view.OutputDir = res.OutputDir
	view.Cues = res.Original.Len()
	if res.TranscriptStats != nil {
		view.Dropped = res.TranscriptStats.Dropped()
	}
	view.Artifacts = artifactViews(res.Artifacts)
	view.BurnedPath = res.BurnedPath
	return view
}

func artifactViews(list []artifacts.Artifact) []artifactView {
	views := make([]artifactView, 0, len(list))
	for _, a := range list {
		views = append(views, artifactView{
			Path:     a.Path,
			Kind:     string(a.Kind),
			Language: a.Language,
			Format:   string(a.Format),
			Bytes:    a.Bytes,
		})
	}
	return views
}

func printProcess(out io.Writer, view processOutput) {
	if view.RunID != "" {
		fmt.Fprintf(out, "Run %s\n", view.RunID)
	}
	for _, a := range view.Artifacts {
		fmt.Fprintf(out, "  wrote %s\n", a.Path)
	}
	if view.Dropped > 0 {
		fmt.Fprintf(out, "Dropped %d empty or zero-length segments\n", view.Dropped)
	}
	if view.BurnedPath != "" {
		fmt.Fprintf(out, "Burned %s\n", view.BurnedPath)
	}
	if view.LogPath != "" {
		fmt.Fprintf(out, "Log: %s\n", view.LogPath)
	}
}

type burnOutput struct {
	RunID    string `json:"run_id,omitempty"`
	LogPath  string `json:"log_path,omitempty"`
	Path     string `json:"path"`
	Subtitle string `json:"subtitle"`
	Kind     string `json:"kind"`
	Command  string `json:"command"`
	DryRun   bool   `json:"dry_run"`
}

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var (
		subtitleDir string
		kind        string
		dryRun      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "burn <video>",
		Short: "Hardcode an existing subtitle artifact into a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			req := pipeline.BurnRequest{Video: args[0], SubtitleDir: subtitleDir, DryRun: dryRun}
			if strings.TrimSpace(kind) != "" {
				parsed, err := burnin.ParseKind(kind)
				if err != nil {
					return services.Wrap(services.ErrValidation, "", "burn", "--kind", err)
				}
				req.Kind = parsed
			}

			opts := []pipeline.Option{pipeline.WithLogger(ctx.loggerValue())}
			if !dryRun {
				if err := checkReady(cmd.Context(), cfg, preflight.Options{}, false, true); err != nil {
					return err
				}
				store, err := ctx.openJournal()
				if err != nil {
					return err
				}
				defer store.Close()
				markAbandoned(cmd.Context(), store)
				opts = append(opts, pipeline.WithJournal(store))
			}

			res, err := pipeline.New(cfg, opts...).Burn(cmd.Context(), req)
			if err != nil {
				return err
			}
			view := burnOutput{
				RunID:    res.RunID,
				LogPath:  res.LogPath,
				Path:     res.Path,
				Subtitle: res.Subtitle.Path,
				Kind:     string(res.Subtitle.Kind),
				Command:  res.Command,
				DryRun:   res.DryRun,
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			if view.DryRun {
				fmt.Fprintf(out, "Subtitle: %s (%s)\n", view.Subtitle, view.Kind)
				fmt.Fprintln(out, view.Command)
				return nil
			}
			fmt.Fprintf(out, "Burned %s into %s\n", view.Subtitle, view.Path)
			if view.LogPath != "" {
				fmt.Fprintf(out, "Log: %s\n", view.LogPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subtitleDir, "subtitles", "", "Directory holding the subtitle artifacts (default: paths.output_dir, then next to the video)")
	cmd.Flags().StringVar(&kind, "kind", "", "Subtitle kind: bilingual, translated or original (default: burn.kind_preference)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the ffmpeg command without running it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
