package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeProject()
	c.normalizeLauncher()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.ProbeBinary = strings.TrimSpace(c.FFmpeg.ProbeBinary)
	if c.FFmpeg.ProbeBinary == "" {
		c.FFmpeg.ProbeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.InstallCommand = strings.TrimSpace(c.FFmpeg.InstallCommand)
	if c.FFmpeg.CheckTimeout <= 0 {
		c.FFmpeg.CheckTimeout = defaultFFmpegCheckTimeout
	}
}

func (c *Config) normalizeProject() {
	c.Project.Title = strings.TrimSpace(c.Project.Title)
	if c.Project.Title == "" {
		c.Project.Title = defaultProjectTitle
	}
	c.Project.Device = NormalizeDevice(c.Project.Device)
}

func (c *Config) normalizeLauncher() {
	c.Launcher.Mode = strings.ToLower(strings.TrimSpace(c.Launcher.Mode))
	if c.Launcher.Mode == "" {
		c.Launcher.Mode = defaultLauncherMode
	}
	c.Launcher.Terminal = strings.TrimSpace(c.Launcher.Terminal)
	c.Launcher.WindowTitle = strings.TrimSpace(c.Launcher.WindowTitle)
	if c.Launcher.WindowTitle == "" {
		c.Launcher.WindowTitle = defaultWindowTitle
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("VIBEMIX_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// NormalizeDevice maps device names, including the legacy "gpu" and
// "amd-gpu" aliases, onto the canonical names. Unknown values are returned
// lowercased so validation can report them.
func NormalizeDevice(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "", DeviceCPU:
		return DeviceCPU
	case DeviceGPUNvidia, "gpu", "nvidia", "nvenc":
		return DeviceGPUNvidia
	case DeviceGPUAMD, "amd-gpu", "amd", "amf":
		return DeviceGPUAMD
	default:
		return value
	}
}
