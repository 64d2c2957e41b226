package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"vibemix/internal/config"
	"vibemix/internal/deps"
	"vibemix/internal/shell"
)

// CheckFFmpeg verifies that ffmpeg runs and reports its version.
func CheckFFmpeg(ctx context.Context, runner shell.Runner, binary string, timeout time.Duration) Result {
	const name = "FFmpeg"
	if runner == nil {
		return Result{Name: name, Detail: "command runner unavailable"}
	}
	status := deps.CheckFFmpeg(ctx, runner, binary, timeout)
	if !status.Installed {
		return Result{Name: name, Detail: fmt.Sprintf("not installed (%s); run `vibemix ffmpeg install`", status.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: status.Version}
}

// CheckProbe reports whether ffprobe is on PATH. It is optional: without it
// audio durations are simply unknown.
func CheckProbe(binary string) Result {
	const name = "FFprobe"
	status := deps.LocateFFprobe(binary)
	if !status.Installed {
		return Result{Name: name, Optional: true, Detail: status.Detail}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: status.Path}
}

// EncoderName returns the ffmpeg encoder a device needs checked, or "" for
// the software path.
func EncoderName(device string) string {
	switch config.NormalizeDevice(device) {
	case config.DeviceGPUNvidia:
		return "h264_nvenc"
	case config.DeviceGPUAMD:
		return "h264_amf"
	default:
		return ""
	}
}

// CheckEncoder verifies that ffmpeg was built with the named encoder.
func CheckEncoder(ctx context.Context, runner shell.Runner, binary, encoder string, timeout time.Duration) Result {
	name := "Encoder " + encoder
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := runner.Run(ctx, shell.Command{Binary: binary, Args: []string{"-hide_banner", "-encoders"}})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("could not list encoders (%v)", err)}
	}
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == encoder {
			return Result{Name: name, Passed: true, Detail: "available"}
		}
	}
	return Result{Name: name, Detail: "not available in this ffmpeg build; choose another device"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
