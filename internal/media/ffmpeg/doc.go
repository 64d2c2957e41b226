// Package ffmpeg builds the ffmpeg invocations that render a slideshow and
// parses ffmpeg log output for progress.
//
// The builder is pure: it turns a Plan (staged image and audio paths plus
// timing) into one or more Invocations without touching the filesystem.
// Each processing device is an Encoder. The software encoder renders in a
// single pass; the hardware encoders (NVENC, AMF) render a silent segment and
// then loop it under the concatenated audio with a stream copy.
//
// Invocations carry both an argv for owned child processes and a quoted
// command line for launching inside a visible terminal.
package ffmpeg
