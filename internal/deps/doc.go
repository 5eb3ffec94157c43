// Package deps reports whether the external binaries interviewcoach shells
// out to (ffmpeg and ffprobe) are installed.
package deps
