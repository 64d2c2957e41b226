package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vibemix/internal/config"
	"vibemix/internal/store"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the remembered output directory",
	}
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	settingsCmd.AddCommand(newSettingsClearCommand(ctx))
	return settingsCmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the remembered output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				value, ok, err := st.Get(cmd.Context(), store.OutputDirKey)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"key": store.OutputDirKey, "value": value, "set": ok})
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "No output directory remembered")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <output-dir>",
		Short: "Remember an output directory for future runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			abs, err := filepath.Abs(expanded)
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				if err := st.Set(cmd.Context(), store.OutputDirKey, abs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Output directory set to %s\n", abs)
				return nil
			})
		},
	}
}

func newSettingsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the remembered output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				if err := st.Delete(cmd.Context(), store.OutputDirKey); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Remembered output directory cleared")
				return nil
			})
		},
	}
}
