package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/artifacts"
	"dualsub/internal/burnin"
	"dualsub/internal/logging"
	"dualsub/internal/pipeline"
	"dualsub/internal/services"
	"dualsub/internal/summary"
	"dualsub/internal/translation"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		to     string
		from   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "translate <subtitle>",
		Short: "Translate a subtitle file, keeping its timing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			input := args[0]

			target, err := targetLanguage(to, cfg)
			if err != nil {
				return err
			}
			dir, err := outputDir(output, cfg, input)
			if err != nil {
				return err
			}
			if err := cfg.ValidateProvider(); err != nil {
				return services.Wrap(services.ErrConfiguration, "", "translate", "", err)
			}

			doc, err := readSubtitle(input, firstNonEmpty(from, cfg.Translation.SourceLanguage))
			if err != nil {
				return err
			}
			store := artifacts.NewStore(nil, dir)
			base := artifacts.BaseName(input)
			dest, err := store.Path(base, burnin.KindTranslated, target, doc.Format())
			if err != nil {
				return err
			}
			if samePath(dest, input) {
				return services.Wrap(services.ErrValidation, "", "translate", input,
					errors.New("input is already named as a translation into the target language"))
			}

			logger := ctx.loggerValue()
			providerCfg := cfg
			if strings.TrimSpace(from) != "" {
				overridden := *cfg
				overridden.Translation.SourceLanguage = strings.TrimSpace(from)
				providerCfg = &overridden
			}
			orch := translation.New(pipeline.NewTranslator(providerCfg, logger), pipeline.OrchestratorOptions(cfg),
				translation.WithLogger(logging.NewComponentLogger(logger, "translation")))
			translated, err := orch.Translate(cmd.Context(), doc, target)
			if err != nil {
				return translationError(err)
			}

			art, err := store.WriteDocument(base, burnin.KindTranslated, translated, doc.Format())
			if err != nil {
				return services.Wrap(services.ErrTransient, "", "write", dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cues, %s)\n", art.Path, translated.Len(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target language (default: translation.target_language)")
	cmd.Flags().StringVar(&from, "from", "", "Source language (default: translation.source_language)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: paths.output_dir, then next to the input)")
	return cmd
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var (
		lang     string
		output   string
		printOut bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <subtitle>",
		Short: "Write a markdown summary of a subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			input := args[0]

			target, err := targetLanguage(lang, cfg)
			if err != nil {
				return err
			}
			if err := cfg.ValidateProvider(); err != nil {
				return services.Wrap(services.ErrConfiguration, "", "summarize", "", err)
			}
			doc, err := readSubtitle(input, cfg.Translation.SourceLanguage)
			if err != nil {
				return err
			}

			logger := ctx.loggerValue()
			res, err := summary.Summarize(cmd.Context(), pipeline.NewCompleter(cfg, logger), doc, summary.Options{Language: target})
			if err != nil {
				if errors.Is(err, summary.ErrEmptyTranscript) {
					return services.Wrap(services.ErrValidation, "", "summarize", input, err)
				}
				return services.Wrap(services.ErrExternalTool, "", "summarize", "", err)
			}
			if res.Truncated {
				logging.WarnWithContext(logger, "transcript truncated for summary", "summary_truncated",
					logging.Int("chars", res.Chars),
					logging.String(logging.FieldImpact, "the end of the video is not covered"),
				)
			}

			if printOut {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(res.Markdown, "\n"))
				return nil
			}
			dir, err := outputDir(output, cfg, input)
			if err != nil {
				return err
			}
			art, err := artifacts.NewStore(nil, dir).WriteSummary(artifacts.BaseName(input), res.Markdown)
			if err != nil {
				return services.Wrap(services.ErrTransient, "", "write", dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", art.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Summary language (default: translation.target_language)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: paths.output_dir, then next to the input)")
	cmd.Flags().BoolVar(&printOut, "print", false, "Print the summary instead of writing <base>.summary.md")
	return cmd
}
