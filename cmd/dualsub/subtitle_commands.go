package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/artifacts"
	"dualsub/internal/bilingual"
	"dualsub/internal/burnin"
	"dualsub/internal/cue"
	"dualsub/internal/services"
	"dualsub/internal/subformat"
)

func newConvertCommand() *cobra.Command {
	var to string
	var output string

	cmd := &cobra.Command{
		Use:         "convert <subtitle>",
		Short:       "Re-encode a subtitle file in another format",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			format, err := cue.ParseFormat(to)
			if err != nil {
				return services.Wrap(services.ErrValidation, "", "convert", "--to", err)
			}
			doc, err := readSubtitle(input, "")
			if err != nil {
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = filepath.Join(filepath.Dir(input), artifacts.BaseName(input)+format.Extension())
			}
			if err := renderDocument(cmd, doc, format, target, input); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cues)\n", target, doc.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output format: srt, vtt or txt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: next to the input)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var (
		order        string
		to           string
		output       string
		originalLang string
		targetLang   string
	)

	cmd := &cobra.Command{
		Use:   "merge <original> <translated>",
		Short: "Combine an original and a translated subtitle into a bilingual file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			originalPath, translatedPath := args[0], args[1]

			mergeOrder := cfg.BilingualOrder()
			if strings.TrimSpace(order) != "" {
				parsed, err := bilingual.ParseOrder(order)
				if err != nil {
					return services.Wrap(services.ErrValidation, "", "merge", "--order", err)
				}
				mergeOrder = parsed
			}

			original, err := readSubtitle(originalPath, firstNonEmpty(originalLang, cfg.Translation.SourceLanguage))
			if err != nil {
				return err
			}
			translated, err := readSubtitle(translatedPath, firstNonEmpty(targetLang, cfg.Translation.TargetLanguage))
			if err != nil {
				return err
			}

			merged, err := bilingual.Merge(original, translated, bilingual.Options{Order: mergeOrder})
			if err != nil {
				var alignErr *bilingual.AlignmentError
				if errors.As(err, &alignErr) {
					return services.Wrap(services.ErrValidation, "", "merge", "", err)
				}
				return err
			}

			format := original.Format()
			if strings.TrimSpace(to) != "" {
				if format, err = cue.ParseFormat(to); err != nil {
					return services.Wrap(services.ErrValidation, "", "merge", "--to", err)
				}
			}
			target := strings.TrimSpace(output)
			if target == "" {
				store := artifacts.NewStore(nil, filepath.Dir(originalPath))
				if target, err = store.Path(artifacts.BaseName(originalPath), burnin.KindBilingual, "", format); err != nil {
					return err
				}
			}
			if err := renderDocument(cmd, merged, format, target, originalPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cues, %s)\n", target, merged.Len(), mergeOrder)
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", "", "Line order: original_first, translated_first or interleaved")
	cmd.Flags().StringVar(&to, "to", "", "Output format (default: the original's format)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <base>.bilingual.<ext> next to the original)")
	cmd.Flags().StringVar(&originalLang, "original-lang", "", "Language of the original (default: translation.source_language)")
	cmd.Flags().StringVar(&targetLang, "translated-lang", "", "Language of the translation (default: translation.target_language)")
	return cmd
}

type inspectCue struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

type inspectOutput struct {
	Path     string       `json:"path"`
	Format   string       `json:"format"`
	Language string       `json:"language,omitempty"`
	Cues     int          `json:"cues"`
	Start    string       `json:"start,omitempty"`
	End      string       `json:"end,omitempty"`
	Items    []inspectCue `json:"items"`
}

func newInspectCommand() *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:         "inspect <subtitle>",
		Short:       "Show the cues of a subtitle file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readSubtitle(args[0], "")
			if err != nil {
				return err
			}
			view := inspectOutput{
				Path:     args[0],
				Format:   string(doc.Format()),
				Language: doc.Language(),
				Cues:     doc.Len(),
				Items:    []inspectCue{},
			}
			if doc.Len() > 0 && doc.Format() != cue.FormatText {
				start, end := doc.Span()
				view.Start, view.End = start.String(), end.String()
			}
			for i := 0; i < doc.Len(); i++ {
				if limit > 0 && i >= limit {
					break
				}
				c := doc.At(i)
				view.Items = append(view.Items, inspectCue{
					Index: c.Index(),
					Start: c.Start().String(),
					End:   c.End().String(),
					Text:  c.Text(),
				})
			}

			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:   %s\n", view.Path)
			fmt.Fprintf(out, "Format: %s\n", view.Format)
			fmt.Fprintf(out, "Cues:   %d\n", view.Cues)
			if view.Start != "" {
				fmt.Fprintf(out, "Span:   %s - %s\n", view.Start, view.End)
			}
			if len(view.Items) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(view.Items))
			for _, item := range view.Items {
				rows = append(rows, []string{
					strconv.Itoa(item.Index),
					item.Start,
					item.End,
					strings.ReplaceAll(item.Text, "\n", " / "),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "#", align: alignRight},
				{header: "Start"},
				{header: "End"},
				{header: "Text", maxWidth: 60},
			}, rows))
			if view.Cues > len(view.Items) {
				fmt.Fprintf(out, "... %d more cues\n", view.Cues-len(view.Items))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n cues (0 shows all)")
	return cmd
}

// renderDocument encodes doc in format and writes it to target, noting on
// stderr when the format drops timing.
func renderDocument(cmd *cobra.Command, doc cue.Document, format cue.Format, target, input string) error {
	if err := subformat.Representable(doc, format); err != nil {
		if !errors.Is(err, subformat.ErrLossyFormat) {
			return services.Wrap(services.ErrValidation, "", "encode", string(format), err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s output drops cue timing\n", format)
	}
	_, content := subformat.Convert(doc, format)
	return writeOutput(target, input, content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
