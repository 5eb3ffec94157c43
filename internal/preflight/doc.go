// Package preflight provides readiness checks for the camera, directories,
// recording formats and the analysis service that interviewcoach depends on.
//
// The doctor command prints every result. Checks never change state; a
// failed check only describes what a later session would run into.
package preflight
