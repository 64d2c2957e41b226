package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	timePattern     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2}\.\d{2})`)
	durationPattern = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2}\.\d{2})`)
)

// ExtractProgress estimates completion from an ffmpeg log chunk. It uses the
// first Duration marker and the last time= marker. A chunk missing either
// marker, or reporting a zero duration, yields 0.
func ExtractProgress(chunk string) float64 {
	total, ok := lastSeconds(durationPattern, chunk, false)
	if !ok {
		return 0
	}
	current, ok := lastSeconds(timePattern, chunk, true)
	if !ok {
		return 0
	}
	return percent(current, total)
}

func percent(current, total float64) float64 {
	if total <= 0 {
		return 0
	}
	value := 100 * current / total
	if value > 100 {
		return 100
	}
	if value < 0 {
		return 0
	}
	return value
}

func lastSeconds(pattern *regexp.Regexp, text string, last bool) (float64, bool) {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	m := matches[0]
	if last {
		m = matches[len(matches)-1]
	}
	return clockSeconds(m[1], m[2], m[3])
}

func clockSeconds(h, m, s string) (float64, bool) {
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}

// ProgressTracker follows a streamed ffmpeg log line by line.
//
// ffmpeg prints one Duration line per input, and looped image inputs report
// only their own length, so callers that know the expected output length
// should pass it to NewProgressTracker.
type ProgressTracker struct {
	total   float64
	fixed   bool
	current float64
}

// NewProgressTracker creates a tracker. A positive totalSeconds overrides
// any Duration markers in the log.
func NewProgressTracker(totalSeconds float64) *ProgressTracker {
	return &ProgressTracker{total: totalSeconds, fixed: totalSeconds > 0}
}

// Feed consumes one log line and returns the current percentage.
func (t *ProgressTracker) Feed(line string) float64 {
	if !t.fixed && t.total == 0 && strings.Contains(line, "Duration:") {
		if total, ok := lastSeconds(durationPattern, line, false); ok {
			t.total = total
		}
	}
	if current, ok := lastSeconds(timePattern, line, true); ok && current > t.current {
		t.current = current
	}
	return t.Percent()
}

// Percent reports the latest computed percentage.
func (t *ProgressTracker) Percent() float64 {
	return percent(t.current, t.total)
}
