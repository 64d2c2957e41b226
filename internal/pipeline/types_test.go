package pipeline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"vibemix/internal/config"
	"vibemix/internal/pipeline"
	"vibemix/internal/services"
)

func TestParseDevice(t *testing.T) {
	cases := []struct {
		in      string
		want    pipeline.Device
		wantErr bool
	}{
		{in: "cpu", want: pipeline.DeviceCPU},
		{in: "", want: pipeline.DeviceCPU},
		{in: "gpu", want: pipeline.DeviceGPUNvidia},
		{in: "GPU-NVIDIA", want: pipeline.DeviceGPUNvidia},
		{in: "amd-gpu", want: pipeline.DeviceGPUAMD},
		{in: "gpu-amd", want: pipeline.DeviceGPUAMD},
		{in: "tpu", wantErr: true},
	}
	for _, tc := range cases {
		got, err := pipeline.ParseDevice(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDevice(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseDevice(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
	if pipeline.DeviceCPU.TwoStage() || !pipeline.DeviceGPUAMD.TwoStage() {
		t.Fatal("unexpected TwoStage classification")
	}
}

func TestProjectConfigValidate(t *testing.T) {
	valid := pipeline.ProjectConfig{Title: "x", LoopCount: 1, ImageDurationSeconds: 1, Device: pipeline.DeviceCPU}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid project, got %v", err)
	}

	mutations := map[string]func(p *pipeline.ProjectConfig){
		"loop":     func(p *pipeline.ProjectConfig) { p.LoopCount = 0 },
		"duration": func(p *pipeline.ProjectConfig) { p.ImageDurationSeconds = 0 },
		"device":   func(p *pipeline.ProjectConfig) { p.Device = "quantum" },
		"cut":      func(p *pipeline.ProjectConfig) { p.CutEnabled = true },
	}
	for name, mutate := range mutations {
		p := valid
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestProjectFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Title = "Road Trip"
	cfg.Project.Device = "amd-gpu"
	cfg.Project.LoopCount = 3

	p := pipeline.ProjectFromConfig(&cfg)
	if p.Title != "Road Trip" || p.Device != pipeline.DeviceGPUAMD || p.LoopCount != 3 {
		t.Fatalf("unexpected project %#v", p)
	}
	if p.ImageDurationSeconds != cfg.Project.ImageDuration {
		t.Fatalf("expected image duration %d, got %d", cfg.Project.ImageDuration, p.ImageDurationSeconds)
	}
}

func TestResultWireShape(t *testing.T) {
	res := pipeline.Result{Success: false, Error: "No images provided", Err: services.ErrValidation}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"success":false,"error":"No images provided"}` {
		t.Fatalf("unexpected wire shape %s", data)
	}
	if !errors.Is(res.Err, services.ErrValidation) {
		t.Fatal("typed error should remain available to Go callers")
	}
}

func TestStageTerminal(t *testing.T) {
	for _, stage := range []pipeline.Stage{pipeline.StageComplete, pipeline.StageError} {
		if !stage.Terminal() {
			t.Fatalf("%s should be terminal", stage)
		}
	}
	if pipeline.StageFinalizing.Terminal() || pipeline.StageIdle.Terminal() {
		t.Fatal("non-terminal stage reported terminal")
	}
}
