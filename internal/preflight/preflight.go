package preflight

import (
	"context"
	"strings"
	"time"

	"vibemix/internal/config"
	"vibemix/internal/shell"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes the preflight checks applicable to cfg and device. An
// empty device uses the configured default.
func RunAll(ctx context.Context, cfg *config.Config, runner shell.Runner, device string) []Result {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(device) == "" {
		device = cfg.Project.Device
	}

	timeout := time.Duration(cfg.FFmpeg.CheckTimeout) * time.Second
	results := []Result{CheckFFmpeg(ctx, runner, cfg.FFmpeg.Binary, timeout)}
	results = append(results, CheckProbe(cfg.FFmpeg.ProbeBinary))

	if encoder := EncoderName(device); encoder != "" && results[0].Passed {
		results = append(results, CheckEncoder(ctx, runner, cfg.FFmpeg.Binary, encoder, timeout))
	}

	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
