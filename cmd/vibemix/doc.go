// Package main hosts the VibeMix CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the settings store,
// and the local process runner into the generation pipeline, and exposes the
// maintenance commands around it: ffmpeg checks, remembered settings, run
// history, staging cleanup, and preflight diagnostics.
//
// Keep this package thin. New behavior belongs in the internal packages and
// is surfaced here through a command or flag.
package main
