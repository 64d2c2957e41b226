package pipeline

import (
	"context"
	"errors"
	"fmt"

	"vibemix/internal/config"
	"vibemix/internal/store"
)

// Device selects the ffmpeg encoder family.
type Device string

const (
	DeviceCPU       Device = config.DeviceCPU
	DeviceGPUNvidia Device = config.DeviceGPUNvidia
	DeviceGPUAMD    Device = config.DeviceGPUAMD
)

// ParseDevice accepts canonical names and the legacy "gpu" and "amd-gpu" aliases.
func ParseDevice(value string) (Device, error) {
	switch normalized := config.NormalizeDevice(value); normalized {
	case config.DeviceCPU, config.DeviceGPUNvidia, config.DeviceGPUAMD:
		return Device(normalized), nil
	default:
		return "", fmt.Errorf("unsupported processing device %q (want cpu, gpu-nvidia, or gpu-amd)", value)
	}
}

// TwoStage reports whether the device renders a silent segment before muxing audio.
func (d Device) TwoStage() bool {
	return d == DeviceGPUNvidia || d == DeviceGPUAMD
}

// MediaAsset is one user-supplied input file held in memory.
type MediaAsset struct {
	Name string
	Data []byte
	// DurationSeconds is the playback length for audio, or 0 when unknown.
	DurationSeconds float64
}

// ProjectConfig carries the per-run generation settings.
type ProjectConfig struct {
	Title                string
	LoopCount            int
	ImageDurationSeconds int
	Device               Device
	CutEnabled           bool
	CutIntervalMinutes   float64
}

// ProjectFromConfig returns the project defaults from the [project] section.
func ProjectFromConfig(cfg *config.Config) ProjectConfig {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return ProjectConfig{
		Title:                cfg.Project.Title,
		LoopCount:            cfg.Project.LoopCount,
		ImageDurationSeconds: cfg.Project.ImageDuration,
		Device:               Device(config.NormalizeDevice(cfg.Project.Device)),
		CutEnabled:           cfg.Project.CutEnabled,
		CutIntervalMinutes:   cfg.Project.CutIntervalMinutes,
	}
}

// Validate checks the numeric bounds and the device tag.
func (p ProjectConfig) Validate() error {
	if p.LoopCount < 1 {
		return fmt.Errorf("loop count must be at least 1 (got %d)", p.LoopCount)
	}
	if p.ImageDurationSeconds < 1 {
		return fmt.Errorf("image duration must be at least 1 second (got %d)", p.ImageDurationSeconds)
	}
	if _, err := ParseDevice(string(p.Device)); err != nil {
		return err
	}
	if p.CutEnabled && p.CutIntervalMinutes <= 0 {
		return errors.New("cut interval must be positive when cutting is enabled")
	}
	return nil
}

// Stage is a step of the generation state machine.
type Stage string

const (
	StageIdle            Stage = "idle"
	StagePreparing       Stage = "preparing"
	StageProcessingVideo Stage = "processing-video"
	StageProcessingAudio Stage = "processing-audio"
	StageFinalizing      Stage = "finalizing"
	StageComplete        Stage = "complete"
	StageError           Stage = "error"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Status is a progress snapshot published to listeners.
type Status struct {
	Stage      Stage   `json:"stage"`
	Progress   float64 `json:"progress"`
	Message    string  `json:"message"`
	OutputPath string  `json:"outputPath,omitempty"`
	OutputDir  string  `json:"outputDir,omitempty"`
}

// Result is the single outcome of a Generate call.
type Result struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"outputPath,omitempty"`
	OutputDir  string `json:"outputDir,omitempty"`
	Error      string `json:"error,omitempty"`
	// Err carries the classified error for errors.Is checks against the
	// services markers.
	Err error `json:"-"`
}

// Request is the input to Generate. An empty OutputDir falls back to the
// remembered directory, then the configured default, then the picker.
type Request struct {
	Project   ProjectConfig
	Images    []MediaAsset
	Audio     []MediaAsset
	OutputDir string
}

// DirectoryPicker asks the user for an output directory. An empty path means
// nothing was selected.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (string, error)
}

// DirectoryPickerFunc adapts a function to DirectoryPicker.
type DirectoryPickerFunc func(ctx context.Context) (string, error)

// PickDirectory implements DirectoryPicker.
func (f DirectoryPickerFunc) PickDirectory(ctx context.Context) (string, error) {
	return f(ctx)
}

// History records run lifecycles. *store.Store implements it.
type History interface {
	RecordRunStart(ctx context.Context, rec store.RunRecord) error
	RecordRunFinish(ctx context.Context, rec store.RunRecord) error
}

func payloads(assets []MediaAsset) [][]byte {
	out := make([][]byte, len(assets))
	for i, asset := range assets {
		out[i] = asset.Data
	}
	return out
}

// totalAudioSeconds sums the known audio durations. It returns 0 when any
// duration is unknown.
func totalAudioSeconds(assets []MediaAsset) float64 {
	var total float64
	for _, asset := range assets {
		if asset.DurationSeconds <= 0 {
			return 0
		}
		total += asset.DurationSeconds
	}
	return total
}
