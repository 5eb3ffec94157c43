// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe against a file; CheckDelivery confirms that a
// transcoded artifact is the H.264/AAC MP4 the analysis service expects.
package ffprobe
