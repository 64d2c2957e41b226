package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"vibemix/internal/logging"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipOnWindows(t)
	runner := NewLocal("", logging.NewNop())
	result, err := runner.Run(context.Background(), Command{Line: "echo out; echo err 1>&2"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out" || strings.TrimSpace(result.Stderr) != "err" {
		t.Fatalf("unexpected output %+v", result)
	}
	if result.ExitCode != 0 {
		t.Fatalf("exit code = %d", result.ExitCode)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	skipOnWindows(t)
	runner := NewLocal("", logging.NewNop())
	result, err := runner.Run(context.Background(), Command{Line: "echo broken pipe 1>&2; exit 3"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || result.ExitCode != 3 {
		t.Fatalf("exit code = %d/%d, want 3", exitErr.Code, result.ExitCode)
	}
	if !strings.Contains(exitErr.Error(), "broken pipe") {
		t.Fatalf("error should carry stderr tail: %v", exitErr)
	}
}

func TestRunBinaryWithArgsAndDir(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	runner := NewLocal("", logging.NewNop())
	result, err := runner.Run(context.Background(), Command{Binary: "sh", Args: []string{"-c", "pwd"}, Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(result.Stdout))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestRunStreamsCarriageReturnLines(t *testing.T) {
	skipOnWindows(t)
	var (
		mu    sync.Mutex
		lines []string
	)
	runner := NewLocal("", logging.NewNop())
	_, err := runner.Run(context.Background(), Command{
		Line: `printf 'frame=1 time=00:00:01.00\rframe=2 time=00:00:02.00\n' 1>&2`,
		OnOutput: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "00:00:02.00") {
		t.Fatalf("unexpected streamed lines %q", lines)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	if _, err := NewLocal("", nil).Run(context.Background(), Command{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestLaunchDetachedWithoutTerminal(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	dir := t.TempDir()
	marker := filepath.Join(dir, "done.txt")
	runner := NewLocal("", logging.NewNop())
	err := runner.Launch(context.Background(), Command{
		Title:   "VibeMix Test",
		Line:    "echo finished > done.txt",
		Dir:     dir,
		LogPath: filepath.Join(dir, "launch.log"),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(marker); err == nil && strings.TrimSpace(string(data)) == "finished" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("detached command did not produce its marker file")
}

func TestLaunchHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLocal("", nil).Launch(ctx, Command{Line: "true"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTerminalScriptQuotesDir(t *testing.T) {
	skipOnWindows(t)
	script := terminalScript("VibeMix CPU Processing", "/tmp/it's here", "ffmpeg -version")
	if !strings.Contains(script, `cd '/tmp/it'\''s here' && ffmpeg -version`) {
		t.Fatalf("unexpected script %q", script)
	}
}
