package capture

import "context"

// Chunk is an immutable fragment of encoded media tagged with the recording's
// negotiated MIME type.
type Chunk struct {
	Data     []byte
	MIMEType string
}

// Stream is a live audio+video acquisition owned by exactly one session.
type Stream interface {
	// Describe returns a short human-readable label for logs.
	Describe() string
	// Close stops all tracks. Callers go through Handle.Release instead.
	Close() error
}

// Encoder incrementally encodes a stream and emits chunks in order.
type Encoder interface {
	// Start begins encoding. onChunk is called sequentially from a single
	// goroutine and never with empty data.
	Start(onChunk func(Chunk)) error
	// Stop ends encoding and returns after the final chunk has been emitted.
	Stop() error
}

// Host is the platform media subsystem.
type Host interface {
	// Acquire opens camera and microphone. Failures wrap
	// services.ErrPermissionDenied or services.ErrDeviceUnavailable.
	Acquire(ctx context.Context) (Stream, error)
	// IsTypeSupported reports whether the host can record mimeType.
	IsTypeSupported(mimeType string) bool
	// NewEncoder prepares an encoder for stream in mimeType.
	NewEncoder(stream Stream, mimeType string) (Encoder, error)
}
