// Package deps checks for and installs the ffmpeg tools VibeMix shells out to.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"vibemix/internal/shell"
)

// ToolStatus reports whether an ffmpeg tool is usable. Version is set by
// CheckFFmpeg and Path by LocateFFprobe.
type ToolStatus struct {
	Installed bool
	Version   string
	Path      string
	Detail    string
}

// CheckFFmpeg runs `<binary> -version` and reports its first output line.
// A missing binary or a failing run reports Installed=false without an error.
func CheckFFmpeg(ctx context.Context, runner shell.Runner, binary string, timeout time.Duration) ToolStatus {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := runner.Run(ctx, shell.Command{Binary: binary, Args: []string{"-version"}})
	if err != nil {
		return ToolStatus{Detail: err.Error()}
	}
	version := firstLine(result.Stdout)
	if version == "" {
		version = firstLine(result.Stderr)
	}
	return ToolStatus{Installed: true, Version: version}
}

// LocateFFprobe resolves the ffprobe binary on PATH without running it.
func LocateFFprobe(binary string) ToolStatus {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return ToolStatus{Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	return ToolStatus{Installed: true, Path: path}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// InstallCommand returns the package-manager command for goos. A non-empty
// override replaces the platform default.
func InstallCommand(goos, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}
	switch goos {
	case "windows":
		return "winget install -e --id Gyan.FFmpeg", nil
	case "darwin":
		return "brew install ffmpeg", nil
	case "linux":
		return "sudo apt-get install -y ffmpeg", nil
	default:
		return "", fmt.Errorf("no ffmpeg install command known for %s; set ffmpeg.install_command", goos)
	}
}

// InstallFFmpeg runs the platform install command and returns its output.
func InstallFFmpeg(ctx context.Context, runner shell.Runner, override string) (shell.Result, error) {
	if runner == nil {
		return shell.Result{}, errors.New("install ffmpeg: runner unavailable")
	}
	line, err := InstallCommand(runtime.GOOS, override)
	if err != nil {
		return shell.Result{}, err
	}
	result, err := runner.Run(ctx, shell.Command{Title: "Install FFmpeg", Line: line})
	if err != nil {
		return result, fmt.Errorf("install ffmpeg: %w", err)
	}
	return result, nil
}
