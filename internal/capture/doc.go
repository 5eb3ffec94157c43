// Package capture owns the camera/microphone boundary of a recording session.
//
// Host abstracts the platform media subsystem: it acquires a live stream,
// reports which recording formats it can encode, and creates incremental
// encoders that emit chunks. Source wraps a Host and hands out Handles whose
// Release is idempotent and safe to call on every exit path. Negotiate picks a
// recording format from an ordered preference list.
//
// FFmpegHost is the production Host. It takes an exclusive flock on the
// capture lock file, opens the V4L2 device node to surface permission and
// presence failures, and runs ffmpeg writing the container to stdout.
package capture
