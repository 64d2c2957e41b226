// Package shell runs external commands for the pipeline.
//
// Runner has two modes. Run executes a command as an owned child and returns
// its exit status and captured output. Launch starts a command detached,
// inside a visible terminal window when one is available, and returns as
// soon as the process has started; callers observe completion through the
// files the command produces.
package shell
