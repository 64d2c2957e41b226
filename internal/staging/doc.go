// Package staging owns the per-run working directory that holds numbered
// copies of the slideshow inputs.
//
// A staging directory lives at <outputDir>/<title>_temp and is guarded by a
// sibling lock file so two runs can never share it. Inputs are written
// byte-exact through a Writer and the directory is removed when the run ends.
// CleanStale sweeps directories left behind by runs that crashed.
package staging
