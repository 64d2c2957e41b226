package ffmpeg

import (
	"math"
	"testing"
)

func TestExtractProgress(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  float64
	}{
		{"halfway", "Duration: 00:01:00.00, start: 0 ... frame=10 time=00:00:30.00 bitrate=1k", 50},
		{"no markers", "no markers here", 0},
		{"missing time", "Duration: 00:01:00.00, start: 0.000000", 0},
		{"missing duration", "frame=1 time=00:00:30.00", 0},
		{"zero duration", "Duration: 00:00:00.00 time=00:00:10.00", 0},
		{"capped", "Duration: 00:00:10.00 time=00:00:20.00", 100},
		{"hours", "Duration: 01:00:00.00 time=00:15:00.00", 25},
		{"last time wins", "Duration: 00:01:40.00 time=00:00:10.00 time=00:00:40.00", 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractProgress(tt.chunk)
			if math.Abs(got-tt.want) > 0.01 {
				t.Fatalf("ExtractProgress(%q) = %v, want %v", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestProgressTrackerUsesFirstDuration(t *testing.T) {
	tracker := NewProgressTracker(0)
	lines := []string{
		"Input #0, wav, from '0.wav':",
		"  Duration: 00:02:00.00, bitrate: 1411 kb/s",
		"Input #1, wav, from '1.wav':",
		"  Duration: 00:00:05.00, bitrate: 1411 kb/s",
		"frame=  100 fps= 25 q=28.0 size=256kB time=00:00:30.00 bitrate=69.9kbits/s",
	}
	var got float64
	for _, line := range lines {
		got = tracker.Feed(line)
	}
	if math.Abs(got-25) > 0.01 {
		t.Fatalf("progress = %v, want 25", got)
	}
}

func TestProgressTrackerFixedTotal(t *testing.T) {
	tracker := NewProgressTracker(200)
	tracker.Feed("  Duration: 00:00:05.00, start: 0.000000")
	if got := tracker.Feed("time=00:00:50.00"); math.Abs(got-25) > 0.01 {
		t.Fatalf("progress = %v, want 25", got)
	}
	if got := tracker.Feed("time=00:00:10.00"); math.Abs(got-25) > 0.01 {
		t.Fatalf("progress regressed to %v", got)
	}
}
