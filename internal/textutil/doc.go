// Package textutil provides small text helpers shared by the pipeline and the
// CLI.
//
// The primary use cases are:
//   - Turning a user-supplied project title into the filesystem-safe token
//     used for staging directories and output file names
//   - Generic conditional selection for message formatting
//
// SanitizeFilename never substitutes a default for empty input; callers that
// need one use ProjectName, which falls back to DefaultProjectName.
package textutil
