package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dualsub/internal/journal"
	"dualsub/internal/services"
)

type runView struct {
	ID         string         `json:"id"`
	Command    string         `json:"command"`
	Status     string         `json:"status"`
	Stage      string         `json:"stage,omitempty"`
	Source     string         `json:"source"`
	OutputDir  string         `json:"output_dir,omitempty"`
	Target     string         `json:"target_language,omitempty"`
	Error      string         `json:"error,omitempty"`
	LogPath    string         `json:"log_path,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Duration   string         `json:"duration"`
	Artifacts  []artifactView `json:"artifacts,omitempty"`
}

func newRunView(run journal.Run, now time.Time) runView {
	view := runView{
		ID:        run.ID,
		Command:   run.Command,
		Status:    string(run.Status),
		Stage:     run.Stage,
		Source:    run.SourcePath,
		OutputDir: run.OutputDir,
		Target:    run.TargetLang,
		Error:     run.Error,
		LogPath:   run.LogPath,
		StartedAt: run.StartedAt,
		Duration:  formatDuration(run.Duration(now)),
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		view.FinishedAt = &finished
	}
	return view
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		statuses   []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run and its artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()
			markAbandoned(cmd.Context(), store)

			if len(args) == 1 {
				return showRun(cmd, store, args[0], jsonOutput)
			}

			filter := make([]journal.Status, 0, len(statuses))
			for _, s := range statuses {
				status := journal.Status(strings.ToLower(strings.TrimSpace(s)))
				switch status {
				case journal.StatusRunning, journal.StatusSucceeded, journal.StatusFailed, journal.StatusRejected:
					filter = append(filter, status)
				default:
					return services.Wrap(services.ErrValidation, "", "history", "--status",
						fmt.Errorf("unknown status %q (want running, succeeded, failed or rejected)", s))
				}
			}

			runs, err := store.ListRuns(cmd.Context(), limit, filter...)
			if err != nil {
				return err
			}
			now := time.Now()
			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				views = append(views, newRunView(run, now))
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					shortID(v.ID),
					v.Command,
					v.Status,
					v.Stage,
					formatTime(v.StartedAt),
					v.Duration,
					filepath.Base(v.Source),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "ID"},
				{header: "Command"},
				{header: "Status"},
				{header: "Stage"},
				{header: "Started"},
				{header: "Duration", align: alignRight},
				{header: "Source", maxWidth: 40},
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only list runs with these statuses")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func showRun(cmd *cobra.Command, store *journal.Store, id string, jsonOutput bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "history", id, err)
	}
	if run == nil {
		return services.Wrap(services.ErrNotFound, "", "history", fmt.Sprintf("run %s", id), nil)
	}
	recorded, err := store.Artifacts(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	view := newRunView(*run, time.Now())
	for _, a := range recorded {
		view.Artifacts = append(view.Artifacts, artifactView{
			Path:     a.Path,
			Kind:     a.Kind,
			Language: a.Language,
			Format:   a.Format,
			Bytes:    int(a.Bytes),
		})
	}
	if jsonOutput {
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:       %s\n", view.ID)
	fmt.Fprintf(out, "Command:   %s\n", view.Command)
	fmt.Fprintf(out, "Status:    %s\n", view.Status)
	if view.Stage != "" {
		fmt.Fprintf(out, "Stage:     %s\n", view.Stage)
	}
	fmt.Fprintf(out, "Source:    %s\n", view.Source)
	if view.Target != "" {
		fmt.Fprintf(out, "Target:    %s\n", view.Target)
	}
	fmt.Fprintf(out, "Started:   %s\n", formatTime(view.StartedAt))
	fmt.Fprintf(out, "Duration:  %s\n", view.Duration)
	if view.Error != "" {
		fmt.Fprintf(out, "Error:     %s\n", view.Error)
	}
	if view.LogPath != "" {
		fmt.Fprintf(out, "Log:       %s\n", view.LogPath)
	}
	if len(view.Artifacts) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(view.Artifacts))
	for _, a := range view.Artifacts {
		rows = append(rows, []string{a.Kind, a.Language, a.Format, strconv.Itoa(a.Bytes), a.Path})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "Kind"},
		{header: "Lang"},
		{header: "Format"},
		{header: "Bytes", align: alignRight},
		{header: "Path"},
	}, rows))
	return nil
}
