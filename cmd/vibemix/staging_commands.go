package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vibemix/internal/config"
	"vibemix/internal/logging"
	"vibemix/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect or clean leftover staging directories",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))
	return stagingCmd
}

// stagingRoot picks the directory to scan: the --dir flag, then the
// configured output directory.
func stagingRoot(cfg *config.Config, dir string) (string, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		return config.ExpandPath(dir)
	}
	if cfg.Paths.OutputDir == "" {
		return "", errors.New("no output directory configured; pass --dir")
	}
	return cfg.Paths.OutputDir, nil
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staging directories under the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := stagingRoot(cfg, dir)
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(root)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			if ctx.JSONMode() {
				type entry struct {
					Name      string `json:"name"`
					Path      string `json:"path"`
					SizeBytes int64  `json:"sizeBytes"`
					Modified  string `json:"modified"`
					Locked    bool   `json:"locked"`
				}
				entries := make([]entry, 0, len(dirs))
				for _, d := range dirs {
					entries = append(entries, entry{
						Name:      d.Name,
						Path:      d.Path,
						SizeBytes: d.Size,
						Modified:  d.ModTime.Format(time.RFC3339),
						Locked:    d.Locked,
					})
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintf(out, "No staging directories in %s\n", root)
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			var total int64
			for _, d := range dirs {
				total += d.Size
				rows = append(rows, []string{
					d.Name,
					logging.FormatBytes(d.Size),
					formatDuration(time.Since(d.ModTime)),
					yesNo(d.Locked),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Directory", "Size", "Age", "In use"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d director%s, %s total\n", len(dirs), pluralY(len(dirs)), logging.FormatBytes(total))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default paths.output_dir)")
	return cmd
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale staging directories",
		Long: `Remove staging directories left behind by interrupted runs.

Directories whose lock is held by a running generation are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := stagingRoot(cfg, dir)
			if err != nil {
				return err
			}
			maxAge := cfg.StaleStagingAge()
			if cmd.Flags().Changed("older-than") {
				maxAge = olderThan
			}
			if all {
				maxAge = 0
			}

			result := staging.CleanStale(cmd.Context(), root, maxAge, ctx.loggerFor(cfg))

			if ctx.JSONMode() {
				failures := make(map[string]string, len(result.Errors))
				for _, e := range result.Errors {
					failures[e.Path] = e.Error.Error()
				}
				return writeJSON(cmd, map[string]any{
					"removed": nonNil(result.Removed),
					"skipped": nonNil(result.Skipped),
					"errors":  failures,
				})
			}

			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, path := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s (in use)\n", path)
			}
			if len(result.Removed) == 0 && len(result.Skipped) == 0 && len(result.Errors) == 0 {
				fmt.Fprintln(out, "No stale staging directories")
			}
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", e.Path, e.Error)
				}
				return fmt.Errorf("%d staging director%s could not be removed", len(result.Errors), pluralY(len(result.Errors)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default paths.output_dir)")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age to remove (default staging.stale_hours)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every unlocked staging directory regardless of age")
	return cmd
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
