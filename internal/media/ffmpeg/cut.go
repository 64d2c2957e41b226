package ffmpeg

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// SegmentsDirName is the directory, next to the rendered video, that holds cut segments.
const SegmentsDirName = "segments"

// CutPlan describes splitting a finished video into fixed-length pieces.
type CutPlan struct {
	Binary          string
	Input           string
	SegmentsDir     string
	BaseName        string
	IntervalMinutes float64
}

// SegmentPattern is the ffmpeg output pattern for numbered segments.
func (c CutPlan) SegmentPattern() string {
	return filepath.Join(c.SegmentsDir, c.BaseName+"_%03d.mp4")
}

// CutCommand builds the stream-copy segmenting invocation.
func CutCommand(c CutPlan) (Invocation, error) {
	if strings.TrimSpace(c.Input) == "" {
		return Invocation{}, errors.New("cut plan has no input")
	}
	if strings.TrimSpace(c.SegmentsDir) == "" || strings.TrimSpace(c.BaseName) == "" {
		return Invocation{}, errors.New("cut plan has no segment destination")
	}
	if c.IntervalMinutes <= 0 {
		return Invocation{}, errors.New("cut interval must be positive")
	}
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	seconds := strconv.FormatFloat(c.IntervalMinutes*60, 'f', -1, 64)
	var args argList
	args.flag("-y", "-i")
	args.literal(c.Input)
	args.flag("-map", "0", "-c", "copy", "-f", "segment", "-segment_time", seconds, "-reset_timestamps", "1")
	args.literal(c.SegmentPattern())
	return args.invocation(binary, StageCut, c.SegmentsDir), nil
}
