// Package ffprobe wraps ffprobe JSON output for the few facts VibeMix needs
// about staged media: container duration and stream counts.
//
// Inspect runs ffprobe and decodes the result; AudioDuration is the shortcut
// the CLI uses to fill in track lengths before a run.
package ffprobe
