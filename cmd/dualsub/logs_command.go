package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dualsub/internal/journal"
	"dualsub/internal/logs"
	"dualsub/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Show the log of a run (default: the most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			var run *journal.Run
			if len(args) == 1 {
				if run, err = store.GetRun(cmd.Context(), args[0]); err != nil {
					return services.Wrap(services.ErrValidation, "", "logs", args[0], err)
				}
			} else {
				recent, err := store.ListRuns(cmd.Context(), 1)
				if err != nil {
					return err
				}
				if len(recent) == 1 {
					run = &recent[0]
				}
			}
			if run == nil {
				return services.Wrap(services.ErrNotFound, "", "logs", "no matching run", nil)
			}
			if strings.TrimSpace(run.LogPath) == "" {
				return services.Wrap(services.ErrNotFound, "", "logs", fmt.Sprintf("run %s has no log file", shortID(run.ID)), nil)
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if !raw {
					line = logs.Render(line)
				}
				fmt.Fprintln(out, line)
			}

			tail, offset, err := logs.Last(run.LogPath, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow || run.Status != journal.StatusRunning {
				return nil
			}

			id := run.ID
			finished := func() bool {
				current, err := store.GetRun(cmd.Context(), id)
				return err != nil || current == nil || current.Status != journal.StatusRunning
			}
			_, err = logs.Follow(cmd.Context(), run.LogPath, offset, 500*time.Millisecond, finished, emit)
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing while the run is in progress")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON records unchanged")
	return cmd
}
