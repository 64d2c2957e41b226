//go:build !windows

package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

func shellInvocation(line string) (string, []string) {
	return "sh", []string{"-c", line}
}

func configureRun(*exec.Cmd, string) {}

// terminalScript wraps line so the window reports the outcome and stays
// readable for a few seconds before closing.
func terminalScript(title, dir, line string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "echo %s; ", shellQuote("Starting "+title+"..."))
	if dir != "" {
		fmt.Fprintf(&b, "cd %s && ", shellQuote(dir))
	}
	b.WriteString(line)
	b.WriteString(` && { echo; echo "Finished successfully."; sleep 5; } || { status=$?; echo; echo "Failed with status $status. Press Enter to close."; read _; exit $status; }`)
	return b.String()
}

func (l *Local) terminalCommand(title, dir, line string) (*exec.Cmd, error) {
	script := terminalScript(title, dir, line)
	prefix := strings.Fields(l.Terminal)
	if len(prefix) == 0 {
		prefix = detectTerminal()
	}
	var cmd *exec.Cmd
	if len(prefix) == 0 {
		cmd = exec.Command("sh", "-c", script) //nolint:gosec
	} else {
		args := append(prefix[1:], "sh", "-c", script)
		cmd = exec.Command(prefix[0], args...) //nolint:gosec
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, nil
}

// detectTerminal picks a terminal emulator when a graphical session is present.
func detectTerminal() []string {
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil
	}
	for _, candidate := range [][]string{
		{"x-terminal-emulator", "-e"},
		{"gnome-terminal", "--"},
		{"konsole", "-e"},
		{"xterm", "-e"},
	} {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			return candidate
		}
	}
	return nil
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
