package capture

import (
	"context"
	"log/slog"
	"sync"

	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
)

// Source acquires streams from a Host and tracks the single live handle.
type Source struct {
	host   Host
	logger *slog.Logger

	mu     sync.Mutex
	active *Handle
}

// NewSource constructs a capture source over host.
func NewSource(host Host, logger *slog.Logger) *Source {
	return &Source{host: host, logger: logging.NewComponentLogger(logger, "capture")}
}

// Host exposes the underlying media subsystem.
func (s *Source) Host() Host {
	return s.host
}

// Acquire opens a new stream. It fails when a previous handle is still live.
func (s *Source) Acquire(ctx context.Context) (*Handle, error) {
	if s == nil || s.host == nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "capturing", "acquire", "capture source unavailable", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && !s.active.Released() {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "capturing", "acquire", "capture stream already active", nil)
	}

	stream, err := s.host.Acquire(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "capture acquisition failed", "capture_acquire_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check camera permissions and that no other application holds the device"),
			logging.String(logging.FieldImpact, "session cannot start"),
		)
		return nil, err
	}
	handle := &Handle{stream: stream, logger: s.logger}
	s.active = handle
	logging.WithContext(ctx, s.logger).Info("capture stream acquired", logging.String("stream", stream.Describe()))
	return handle, nil
}

// Active reports whether a live handle exists.
func (s *Source) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && !s.active.Released()
}

// Handle owns a live Stream. Release is idempotent and nil-safe.
type Handle struct {
	stream Stream
	logger *slog.Logger

	once     sync.Once
	mu       sync.Mutex
	released bool
	err      error
}

// Stream returns the underlying stream.
func (h *Handle) Stream() Stream {
	if h == nil {
		return nil
	}
	return h.stream
}

// Release stops all tracks. Calling it more than once, or on a nil handle,
// is a no-op that returns the first result.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.once.Do(func() {
		err := h.stream.Close()
		h.mu.Lock()
		h.released = true
		h.err = err
		h.mu.Unlock()
		if err != nil {
			logging.WarnWithContext(h.logger, "capture release failed", "capture_release_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "camera indicator may remain on until the process exits"),
			)
			return
		}
		h.logger.Info("capture stream released", logging.String("stream", h.stream.Describe()))
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Released reports whether Release has completed.
func (h *Handle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
