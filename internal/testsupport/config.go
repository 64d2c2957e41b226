package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vibemix/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Polling is tightened so tests never wait on production intervals.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Launcher.Mode = config.LauncherAttached
	cfgVal.Poller.IntervalSeconds = 1
	cfgVal.Poller.SettleSeconds = 1
	cfgVal.Poller.TimeoutSeconds = 5
	cfgVal.Poller.CutSettleSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithDevice sets the default processing device.
func WithDevice(device string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Project.Device = device
	}
}

// WithLauncherMode overrides how ffmpeg stages are started.
func WithLauncherMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Launcher.Mode = mode
	}
}

// WithoutOutputDir clears the configured output directory so callers fall
// back to the remembered setting or the picker.
func WithoutOutputDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = ""
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
