// Package config loads, normalizes, and validates VibeMix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIBEMIX_NTFY_TOPIC. The Config type centralizes every knob the CLI and the
// generation pipeline need: output/log/state directories, the ffmpeg binary,
// project defaults, terminal launching, and completion polling timings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical device names, and clear validation errors.
package config
