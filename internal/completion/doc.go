// Package completion detects when a detached ffmpeg process has finished
// writing its output.
//
// A detached process gives no exit status, so the Poller watches the output
// directory instead. Every interval it lists the directory; when the target
// appears it waits a settle delay and lists again. Two identical sightings
// (same size and modification time, non-empty) mean the file is complete.
// Progress during the wait follows a linear ramp over the timeout.
package completion
