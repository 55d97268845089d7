package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"dualsub/internal/deps"
	"dualsub/internal/journal"
	"dualsub/internal/preflight"
)

type checkView struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type statusOutput struct {
	ConfigPath   string         `json:"config_path"`
	ConfigExists bool           `json:"config_exists"`
	Provider     string         `json:"provider"`
	Target       string         `json:"target_language"`
	Directories  []checkView    `json:"directories"`
	Tools        []checkView    `json:"tools"`
	ProviderAPI  *checkView     `json:"provider_api,omitempty"`
	Runs         map[string]int `json:"runs"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkProvider bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency and journal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			view := statusOutput{
				ConfigPath:   ctx.configPath,
				ConfigExists: ctx.configExists,
				Provider:     cfg.Translation.Provider,
				Target:       cfg.Translation.TargetLanguage,
				Runs:         map[string]int{},
			}

			for _, r := range preflight.RunAll(cmd.Context(), cfg, preflight.Options{}) {
				view.Directories = append(view.Directories, checkView{Name: r.Name, OK: r.Passed, Detail: r.Detail})
			}
			for _, s := range preflight.CheckSystemDeps(cmd.Context(), cfg, false) {
				view.Tools = append(view.Tools, toolView(s))
			}
			if checkProvider {
				r := preflight.CheckTranslationProvider(cmd.Context(), cfg)
				view.ProviderAPI = &checkView{Name: r.Name, OK: r.Passed, Detail: r.Detail}
			}

			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			for status, count := range stats {
				view.Runs[string(status)] = count
			}

			if jsonOutput {
				return writeJSON(cmd, view)
			}
			printStatus(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkProvider, "check-provider", false, "Also call the translation provider to verify the API key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func toolView(s deps.Status) checkView {
	detail := s.Detail
	if detail == "" {
		detail = s.Description
	}
	return checkView{Name: s.Name, OK: s.Available, Optional: s.Optional, Detail: detail}
}

func printStatus(cmd *cobra.Command, view statusOutput) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
	configNote := view.ConfigPath
	if !view.ConfigExists {
		configNote += " (not found; defaults in use)"
	}
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configNote, colorize))
	fmt.Fprintln(out, renderStatusLine("Provider", statusInfo, view.Provider, colorize))
	fmt.Fprintln(out, renderStatusLine("Target language", statusInfo, view.Target, colorize))

	fmt.Fprintln(out, renderSectionHeader("Directories", colorize))
	for _, c := range view.Directories {
		fmt.Fprintln(out, renderStatusLine(c.Name, checkKind(c), c.Detail, colorize))
	}

	fmt.Fprintln(out, renderSectionHeader("Tools", colorize))
	for _, c := range view.Tools {
		fmt.Fprintln(out, renderStatusLine(c.Name, checkKind(c), c.Detail, colorize))
	}
	if view.ProviderAPI != nil {
		fmt.Fprintln(out, renderStatusLine(view.ProviderAPI.Name, checkKind(*view.ProviderAPI), view.ProviderAPI.Detail, colorize))
	}

	fmt.Fprintln(out, renderSectionHeader("Runs", colorize))
	if len(view.Runs) == 0 {
		fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, "no runs recorded", colorize))
		return
	}
	statuses := make([]string, 0, len(view.Runs))
	for status := range view.Runs {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		kind := statusInfo
		switch journal.Status(status) {
		case journal.StatusSucceeded:
			kind = statusOK
		case journal.StatusFailed, journal.StatusRejected:
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(status, kind, fmt.Sprintf("%d", view.Runs[status]), colorize))
	}
}

func checkKind(c checkView) statusKind {
	switch {
	case c.OK:
		return statusOK
	case c.Optional:
		return statusWarn
	default:
		return statusError
	}
}
