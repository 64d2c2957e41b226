// Package logs reads the VibeMix log files back for the CLI.
//
// Tail returns the last lines of a file together with the byte offset to
// resume from, and Follow streams lines appended after that offset until the
// context ends. RunLogPath names the per-run ffmpeg log that detached
// launches write when no terminal window is available.
package logs
