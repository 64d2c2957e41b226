// Package pipeline turns a set of images and audio tracks into a slideshow
// video by orchestrating the staging, ffmpeg, and completion packages.
//
// A Generator runs one linear sequence per Generate call: validate inputs,
// resolve the output directory, stage inputs into `<title>_temp`, launch the
// device-specific ffmpeg invocations, wait for the final file to settle,
// optionally split it into segments, then remove the staging directory.
// Progress is published as Status values that only move forward within a run
// until the run ends in `complete` or `error`.
//
// Launch mode "terminal" opens each ffmpeg stage in a visible terminal window
// and relies on completion polling. Mode "attached" runs ffmpeg as an owned
// child so exit codes and streamed progress are available; polling then only
// confirms the artifact on disk.
package pipeline
