package config

const (
	defaultLogDir             = "~/.local/share/vibemix/logs"
	defaultStateDir           = "~/.local/share/vibemix"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultFFmpegCheckTimeout = 15
	defaultProjectTitle       = "video_project"
	defaultLoopCount          = 1
	defaultImageDuration      = 5
	defaultDevice             = DeviceCPU
	defaultLauncherMode       = LauncherTerminal
	defaultWindowTitle        = "VibeMix"
	defaultPollInterval       = 5
	defaultPollSettle         = 2
	defaultPollTimeout        = 600
	defaultCutSettle          = 3
	defaultStaleHours         = 24
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Canonical processing device names.
const (
	DeviceCPU       = "cpu"
	DeviceGPUNvidia = "gpu-nvidia"
	DeviceGPUAMD    = "gpu-amd"
)

// Launcher modes.
const (
	LauncherTerminal = "terminal"
	LauncherAttached = "attached"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		FFmpeg: FFmpeg{
			Binary:       defaultFFmpegBinary,
			ProbeBinary:  defaultFFprobeBinary,
			CheckTimeout: defaultFFmpegCheckTimeout,
		},
		Project: Project{
			Title:         defaultProjectTitle,
			LoopCount:     defaultLoopCount,
			ImageDuration: defaultImageDuration,
			Device:        defaultDevice,
		},
		Launcher: Launcher{
			Mode:        defaultLauncherMode,
			WindowTitle: defaultWindowTitle,
		},
		Poller: Poller{
			IntervalSeconds:  defaultPollInterval,
			SettleSeconds:    defaultPollSettle,
			TimeoutSeconds:   defaultPollTimeout,
			CutSettleSeconds: defaultCutSettle,
		},
		Staging: Staging{
			StaleHours: defaultStaleHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
