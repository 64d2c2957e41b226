package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateLauncher(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if c.Staging.StaleHours < 0 {
		return errors.New("staging.stale_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateProject() error {
	if c.Project.LoopCount < 1 {
		return errors.New("project.loop_count must be at least 1")
	}
	if c.Project.ImageDuration < 1 {
		return errors.New("project.image_duration must be at least 1 second")
	}
	switch c.Project.Device {
	case DeviceCPU, DeviceGPUNvidia, DeviceGPUAMD:
	default:
		return fmt.Errorf("project.device: unsupported value %q (want cpu, gpu-nvidia, or gpu-amd)", c.Project.Device)
	}
	if c.Project.CutEnabled && c.Project.CutIntervalMinutes <= 0 {
		return errors.New("project.cut_interval_minutes must be positive when project.cut_enabled is true")
	}
	return nil
}

func (c *Config) validateLauncher() error {
	switch c.Launcher.Mode {
	case LauncherTerminal, LauncherAttached:
		return nil
	default:
		return fmt.Errorf("launcher.mode: unsupported value %q (want terminal or attached)", c.Launcher.Mode)
	}
}

func (c *Config) validatePoller() error {
	if err := ensurePositiveMap(map[string]int{
		"poller.interval_seconds": c.Poller.IntervalSeconds,
		"poller.settle_seconds":   c.Poller.SettleSeconds,
		"poller.timeout_seconds":  c.Poller.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Poller.CutSettleSeconds < 0 {
		return errors.New("poller.cut_settle_seconds must be >= 0")
	}
	if c.Poller.TimeoutSeconds <= c.Poller.IntervalSeconds {
		return errors.New("poller.timeout_seconds must be greater than poller.interval_seconds")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
