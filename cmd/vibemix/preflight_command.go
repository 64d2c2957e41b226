package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vibemix/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check that ffmpeg, the encoder, and directories are ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, ctx.runner(cfg), device)
			failed := preflight.Failed(results)

			if ctx.JSONMode() {
				type check struct {
					Name     string `json:"name"`
					Passed   bool   `json:"passed"`
					Optional bool   `json:"optional,omitempty"`
					Detail   string `json:"detail,omitempty"`
				}
				checks := make([]check, 0, len(results))
				for _, r := range results {
					checks = append(checks, check{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
				}
				if err := writeJSON(cmd, map[string]any{"ready": len(failed) == 0, "checks": checks}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{statusWord(r.Passed, r.Optional, colorize), r.Name, r.Detail})
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Check", "Detail"}, rows, nil))
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "Processing device to check (default from config)")
	return cmd
}
