// Package services defines shared utilities consumed by the generation
// pipeline and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging
//     and tracing.
//   - Structured error markers plus the Wrap helper, which keep a single
//     human-readable message for the caller while letting Go code classify
//     failures with errors.Is.
//
// Use these helpers when wiring new pipeline steps so failure reporting and
// observability stay uniform.
package services
