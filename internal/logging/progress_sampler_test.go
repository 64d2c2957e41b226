package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name   string
		bucket float64
		want   float64
	}{
		{"zero uses default", 0, 10},
		{"negative uses default", -3, 10},
		{"custom", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucket)
			if s.bucketSize != tt.want {
				t.Fatalf("bucketSize = %v, want %v", s.bucketSize, tt.want)
			}
			if s.lastBucket != -1 {
				t.Fatalf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilLogsEverything(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("preparing", 5) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		stage   string
		percent int
		want    bool
	}{
		{"preparing", 5, true},
		{"preparing", 8, false},
		{"preparing", 10, true},
		{"preparing", 19, false},
		{"processing-video", 25, true},
		{"processing-video", 26, false},
		{"finalizing", 80, true},
		{"finalizing", 95, true},
		{"finalizing", 95, false},
		{"complete", 100, true},
		{"complete", 150, false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.stage, step.percent); got != step.want {
			t.Fatalf("step %d (%s %d): got %v, want %v", i, step.stage, step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerUnknownPercent(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog("preparing", -1) {
		t.Fatal("stage change should log even with unknown percent")
	}
	if s.ShouldLog("preparing", -1) {
		t.Fatal("repeat unknown percent should not log")
	}
	s.Reset()
	if !s.ShouldLog("preparing", -1) {
		t.Fatal("reset should make the next update log")
	}
}
