package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vibemix/internal/config"
	"vibemix/internal/logging"
	"vibemix/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var clearRuns bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				if clearRuns {
					removed, err := st.ClearRuns(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d run(s)\n", removed)
					return nil
				}

				runs, err := st.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if runs == nil {
						runs = []store.RunRecord{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.Title,
						run.Device,
						run.Stage,
						logging.FormatAge(run.StartedAt),
						runDuration(run),
						runOutcome(run),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Title", "Device", "Stage", "Started", "Duration", "Result"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&clearRuns, "clear", false, "Delete all recorded runs")
	return cmd
}

func runDuration(run store.RunRecord) string {
	if !run.Finished() {
		return "-"
	}
	return formatDuration(run.Duration())
}

func runOutcome(run store.RunRecord) string {
	switch {
	case !run.Finished():
		return "running"
	case run.Error != "":
		return run.Error
	default:
		return run.OutputPath
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	return d.Round(time.Second).String()
}
