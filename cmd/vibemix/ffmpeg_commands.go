package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vibemix/internal/deps"
)

func newFFmpegCommand(ctx *commandContext) *cobra.Command {
	ffmpegCmd := &cobra.Command{
		Use:   "ffmpeg",
		Short: "Check or install ffmpeg",
	}
	ffmpegCmd.AddCommand(newFFmpegCheckCommand(ctx))
	ffmpegCmd.AddCommand(newFFmpegInstallCommand(ctx))
	return ffmpegCmd
}

func newFFmpegCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether ffmpeg and ffprobe are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner := ctx.runner(cfg)
			timeout := time.Duration(cfg.FFmpeg.CheckTimeout) * time.Second

			status := deps.CheckFFmpeg(cmd.Context(), runner, cfg.FFmpeg.Binary, timeout)
			probe := deps.CheckFFmpeg(cmd.Context(), runner, cfg.FFmpeg.ProbeBinary, timeout)

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"ffmpeg":  map[string]any{"installed": status.Installed, "version": status.Version, "detail": status.Detail},
					"ffprobe": map[string]any{"installed": probe.Installed, "version": probe.Version, "detail": probe.Detail},
				})
			}

			rows := [][]string{
				toolRow(cfg.FFmpeg.Binary, status),
				toolRow(cfg.FFmpeg.ProbeBinary, probe),
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"Tool", "Installed", "Version"}, rows, nil))
			if !status.Installed {
				line, _ := deps.InstallCommand(runtime.GOOS, cfg.FFmpeg.InstallCommand)
				if line != "" {
					fmt.Fprintf(out, "Install with `vibemix ffmpeg install` (runs: %s)\n", line)
				}
				return fmt.Errorf("ffmpeg not available: %s", status.Detail)
			}
			return nil
		},
	}
}

func toolRow(binary string, status deps.ToolStatus) []string {
	version := status.Version
	if !status.Installed {
		version = status.Detail
	}
	return []string{binary, yesNo(status.Installed), version}
}

func newFFmpegInstallCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install ffmpeg with the platform package manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			line, err := deps.InstallCommand(runtime.GOOS, cfg.FFmpeg.InstallCommand)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, line)
				return nil
			}
			fmt.Fprintf(out, "Running: %s\n", line)
			result, err := deps.InstallFFmpeg(cmd.Context(), ctx.runner(cfg), cfg.FFmpeg.InstallCommand)
			if text := strings.TrimSpace(result.Stdout); text != "" {
				fmt.Fprintln(out, text)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "FFmpeg installed. Run `vibemix ffmpeg check` to confirm.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the install command without running it")
	return cmd
}
