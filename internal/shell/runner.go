package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"vibemix/internal/logging"
)

// Command describes one external process.
//
// When Binary is set, Run executes it directly with Args. Otherwise Line is
// handed to the platform shell. Launch always runs Line inside a terminal
// and falls back to rendering Binary and Args when Line is empty.
type Command struct {
	Title  string
	Binary string
	Args   []string
	Line   string
	Dir    string
	// LogPath receives the output of detached launches that have no terminal.
	LogPath string
	// OnOutput receives each stdout and stderr line of Run as it arrives.
	OnOutput func(line string)
}

func (c Command) display() string {
	if c.Line != "" {
		return c.Line
	}
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of a completed Run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	Launch(ctx context.Context, cmd Command) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	detail := lastLine(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.Code, detail)
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// Local runs commands on this machine.
type Local struct {
	// Terminal is the terminal emulator prefix used by Launch on Unix, for
	// example "x-terminal-emulator -e". Empty selects auto-detection.
	Terminal string
	Logger   *slog.Logger
}

// NewLocal constructs a Local runner.
func NewLocal(terminal string, logger *slog.Logger) *Local {
	return &Local{Terminal: strings.TrimSpace(terminal), Logger: logging.NewComponentLogger(logger, "shell")}
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, c Command) (Result, error) {
	var cmd *exec.Cmd
	name := c.Binary
	if strings.TrimSpace(c.Binary) != "" {
		cmd = exec.CommandContext(ctx, c.Binary, c.Args...) //nolint:gosec
	} else {
		if strings.TrimSpace(c.Line) == "" {
			return Result{}, errors.New("shell: empty command")
		}
		shellName, shellArgs := shellInvocation(c.Line)
		cmd = exec.CommandContext(ctx, shellName, shellArgs...) //nolint:gosec
		name = shellName
	}
	cmd.Dir = c.Dir
	configureRun(cmd, c.Line)

	var stdout, stderr bytes.Buffer
	if c.OnOutput == nil {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		outPipe, err := cmd.StdoutPipe()
		if err != nil {
			return Result{}, fmt.Errorf("stdout pipe: %w", err)
		}
		errPipe, err := cmd.StderrPipe()
		if err != nil {
			return Result{}, fmt.Errorf("stderr pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return Result{}, fmt.Errorf("start %s: %w", name, err)
		}
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		forward := func(r io.Reader, sink *bytes.Buffer) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Split(scanLinesOrReturns)
			for scanner.Scan() {
				line := scanner.Text()
				mu.Lock()
				sink.WriteString(line)
				sink.WriteByte('\n')
				c.OnOutput(line)
				mu.Unlock()
			}
		}
		wg.Add(2)
		go forward(outPipe, &stdout)
		go forward(errPipe, &stderr)
		wg.Wait()
		return l.finish(name, cmd.Wait(), &stdout, &stderr)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", name, err)
	}
	return l.finish(name, cmd.Wait(), &stdout, &stderr)
}

func (l *Local) finish(name string, waitErr error, stdout, stderr *bytes.Buffer) (Result, error) {
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if waitErr == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{Command: name, Code: result.ExitCode, Stderr: result.Stderr}
	}
	return result, fmt.Errorf("wait %s: %w", name, waitErr)
}

// Launch implements Runner. The process is not tied to ctx: it keeps running
// after ctx is canceled and after this process exits.
func (l *Local) Launch(ctx context.Context, c Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := c.display()
	if line == "" {
		return errors.New("shell: empty command")
	}
	cmd, err := l.terminalCommand(c.Title, c.Dir, line)
	if err != nil {
		return err
	}
	cmd.Dir = c.Dir
	var logFile *os.File
	if cmd.Stdout == nil && c.LogPath != "" {
		logFile, err = os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open launch log: %w", err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}
	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return fmt.Errorf("launch %q: %w", c.Title, err)
	}
	if l.Logger != nil {
		l.Logger.Info("launched detached command",
			logging.String("title", c.Title),
			logging.Int("pid", cmd.Process.Pid),
			logging.String(logging.FieldEventType, "command_launched"),
		)
	}
	go func() {
		_ = cmd.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
	}()
	return nil
}

// scanLinesOrReturns splits on \n and on bare \r, which ffmpeg uses to
// redraw its progress line.
func scanLinesOrReturns(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
