package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// FFmpeg contains configuration for the external video tool.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	ProbeBinary    string `toml:"probe_binary"`
	InstallCommand string `toml:"install_command"`
	CheckTimeout   int    `toml:"check_timeout"`
}

// Project contains the defaults applied to `vibemix generate` when flags are
// omitted.
type Project struct {
	Title              string  `toml:"title"`
	LoopCount          int     `toml:"loop_count"`
	ImageDuration      int     `toml:"image_duration"`
	Device             string  `toml:"device"`
	CutEnabled         bool    `toml:"cut_enabled"`
	CutIntervalMinutes float64 `toml:"cut_interval_minutes"`
}

// Launcher controls how ffmpeg processes are started.
//
// Mode "terminal" opens a detached, user-visible terminal window per stage and
// relies on completion polling. Mode "attached" runs ffmpeg as an owned child
// process with a captured exit code and streamed progress.
type Launcher struct {
	Mode        string `toml:"mode"`
	Terminal    string `toml:"terminal"`
	WindowTitle string `toml:"window_title"`
}

// Poller contains completion polling timings, in seconds.
type Poller struct {
	IntervalSeconds  int `toml:"interval_seconds"`
	SettleSeconds    int `toml:"settle_seconds"`
	TimeoutSeconds   int `toml:"timeout_seconds"`
	CutSettleSeconds int `toml:"cut_settle_seconds"`
}

// Staging contains configuration for leftover staging directory cleanup.
type Staging struct {
	StaleHours int `toml:"stale_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for VibeMix.
//
// Configuration sections by subsystem:
//   - Paths: default output, log, and state (settings database) directories
//   - FFmpeg: tool binaries and the install command override
//   - Project: defaults for slideshow generation
//   - Launcher: detached terminal vs attached child process
//   - Poller: completion polling interval, settle delay, and timeout
//   - Staging: stale staging directory cleanup
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Project       Project       `toml:"project"`
	Launcher      Launcher      `toml:"launcher"`
	Poller        Poller        `toml:"poller"`
	Staging       Staging       `toml:"staging"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vibemix/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vibemix.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories. The output
// directory is left alone: it is usually chosen per run and may live on
// removable storage.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SettingsDBPath returns the location of the settings and run history database.
func (c *Config) SettingsDBPath() string {
	return filepath.Join(c.Paths.StateDir, "vibemix.db")
}

// PollInterval returns the completion poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalSeconds) * time.Second
}

// PollSettle returns the delay between the two listings of the stability check.
func (c *Config) PollSettle() time.Duration {
	return time.Duration(c.Poller.SettleSeconds) * time.Second
}

// PollTimeout returns the maximum time to wait for an output artifact.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Poller.TimeoutSeconds) * time.Second
}

// CutSettle returns the delay granted to the detached cut stage.
func (c *Config) CutSettle() time.Duration {
	return time.Duration(c.Poller.CutSettleSeconds) * time.Second
}

// StaleStagingAge returns the age after which leftover staging directories are removed.
func (c *Config) StaleStagingAge() time.Duration {
	return time.Duration(c.Staging.StaleHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
