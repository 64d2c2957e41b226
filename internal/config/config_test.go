package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"vibemix/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIBEMIX_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "vibemix", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "vibemix", "vibemix.db")
	if cfg.SettingsDBPath() != wantDB {
		t.Fatalf("unexpected settings db path: got %q want %q", cfg.SettingsDBPath(), wantDB)
	}
	if cfg.Paths.OutputDir != "" {
		t.Fatalf("expected empty output dir by default, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Project.Device != config.DeviceCPU {
		t.Fatalf("expected cpu device by default, got %q", cfg.Project.Device)
	}
	if cfg.Launcher.Mode != config.LauncherTerminal {
		t.Fatalf("expected terminal launcher by default, got %q", cfg.Launcher.Mode)
	}
	if cfg.PollInterval() != 5*time.Second || cfg.PollSettle() != 2*time.Second || cfg.PollTimeout() != 10*time.Minute {
		t.Fatalf("unexpected poller timings: %v %v %v", cfg.PollInterval(), cfg.PollSettle(), cfg.PollTimeout())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"output_dir": "~/Videos",
		},
		"project": map[string]any{
			"loop_count":           3,
			"image_duration":       8,
			"device":               "amd-gpu",
			"cut_enabled":          true,
			"cut_interval_minutes": 15.5,
		},
		"launcher": map[string]any{
			"mode": "ATTACHED",
		},
		"poller": map[string]any{
			"interval_seconds": 1,
			"timeout_seconds":  30,
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Videos") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Project.Device != config.DeviceGPUAMD {
		t.Fatalf("expected legacy amd-gpu alias to normalize, got %q", cfg.Project.Device)
	}
	if cfg.Project.LoopCount != 3 || cfg.Project.ImageDuration != 8 {
		t.Fatalf("unexpected project defaults: %+v", cfg.Project)
	}
	if !cfg.Project.CutEnabled || cfg.Project.CutIntervalMinutes != 15.5 {
		t.Fatalf("unexpected cut settings: %+v", cfg.Project)
	}
	if cfg.Launcher.Mode != config.LauncherAttached {
		t.Fatalf("expected launcher mode to be lowercased, got %q", cfg.Launcher.Mode)
	}
	if cfg.Poller.SettleSeconds != 2 {
		t.Fatalf("expected untouched settle default, got %d", cfg.Poller.SettleSeconds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		wantErr string
	}{
		{
			name:    "loop count",
			payload: map[string]any{"project": map[string]any{"loop_count": 0}},
			wantErr: "project.loop_count",
		},
		{
			name:    "device",
			payload: map[string]any{"project": map[string]any{"device": "tpu"}},
			wantErr: "project.device",
		},
		{
			name:    "cut interval",
			payload: map[string]any{"project": map[string]any{"cut_enabled": true}},
			wantErr: "project.cut_interval_minutes",
		},
		{
			name:    "launcher",
			payload: map[string]any{"launcher": map[string]any{"mode": "popup"}},
			wantErr: "launcher.mode",
		},
		{
			name:    "poller timeout",
			payload: map[string]any{"poller": map[string]any{"interval_seconds": 10, "timeout_seconds": 5}},
			wantErr: "poller.timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			path := filepath.Join(t.TempDir(), "config.toml")
			data, err := toml.Marshal(tt.payload)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, _, _, err = config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNtfyTopicFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIBEMIX_NTFY_TOPIC", " https://ntfy.sh/vibemix ")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/vibemix" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestNormalizeDevice(t *testing.T) {
	tests := map[string]string{
		"":           config.DeviceCPU,
		"CPU":        config.DeviceCPU,
		"gpu":        config.DeviceGPUNvidia,
		"gpu-nvidia": config.DeviceGPUNvidia,
		"amd-gpu":    config.DeviceGPUAMD,
		" gpu-amd ":  config.DeviceGPUAMD,
		"quantum":    "quantum",
	}
	for input, want := range tests {
		if got := config.NormalizeDevice(input); got != want {
			t.Errorf("NormalizeDevice(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Project.ImageDuration != 5 {
		t.Fatalf("unexpected sample image duration: %d", cfg.Project.ImageDuration)
	}
}
