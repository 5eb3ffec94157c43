// Package transcode converts a finalized recording into the artifact that is
// uploaded for analysis.
//
// Normalizer passes recordings whose format is on the canonical allow-list
// through unchanged. Everything else is re-encoded by an Engine obtained from a
// LazyEngine, which loads ffmpeg at most once per process.
package transcode
