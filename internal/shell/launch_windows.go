//go:build windows

package shell

import (
	"fmt"
	"os/exec"
	"syscall"
)

func shellInvocation(line string) (string, []string) {
	return "cmd", []string{"/c", line}
}

// configureRun passes shell lines to cmd.exe verbatim; Go's default argument
// escaping is not understood by cmd.
func configureRun(cmd *exec.Cmd, line string) {
	if line == "" || len(cmd.Args) == 0 || cmd.Args[0] != "cmd" {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: `cmd /c "` + line + `"`}
}

func terminalScript(title, dir, line string) string {
	script := fmt.Sprintf(`echo Starting %s... && `, title)
	if dir != "" {
		script += fmt.Sprintf(`cd /d "%s" && `, dir)
	}
	return script + line + ` && echo. && echo Finished successfully. && timeout /t 5 /nobreak >nul || pause`
}

func (l *Local) terminalCommand(title, dir, line string) (*exec.Cmd, error) {
	cmd := exec.Command("cmd") //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: fmt.Sprintf(`cmd /c start "%s" cmd /c "%s"`, title, terminalScript(title, dir, line)),
	}
	return cmd, nil
}
