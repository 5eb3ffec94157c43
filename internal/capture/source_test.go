package capture

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
)

type stubStream struct {
	closes int
}

func (s *stubStream) Describe() string { return "stub" }

func (s *stubStream) Close() error {
	s.closes++
	return nil
}

type stubHost struct {
	stream *stubStream
	err    error
}

func (h *stubHost) Acquire(context.Context) (Stream, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.stream = &stubStream{}
	return h.stream, nil
}

func (h *stubHost) IsTypeSupported(string) bool { return true }

func (h *stubHost) NewEncoder(Stream, string) (Encoder, error) { return nil, errors.New("unused") }

func TestHandleReleaseIsIdempotent(t *testing.T) {
	host := &stubHost{}
	source := NewSource(host, logging.NewNop())

	handle, err := source.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !source.Active() {
		t.Fatal("expected active source after acquire")
	}
	for i := 0; i < 3; i++ {
		if err := handle.Release(); err != nil {
			t.Fatalf("Release #%d: %v", i, err)
		}
	}
	if host.stream.closes != 1 {
		t.Fatalf("expected exactly one close, got %d", host.stream.closes)
	}
	if source.Active() || !handle.Released() {
		t.Fatal("expected released handle")
	}
}

func TestNilHandleReleaseIsNoop(t *testing.T) {
	var handle *Handle
	if err := handle.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
	if !handle.Released() {
		t.Fatal("nil handle should report released")
	}
}

func TestAcquireRejectsSecondLiveHandle(t *testing.T) {
	source := NewSource(&stubHost{}, logging.NewNop())
	first, err := source.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := source.Acquire(context.Background()); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable while first handle is live, got %v", err)
	}
	_ = first.Release()
	second, err := source.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = second.Release()
}

func TestAcquireWithoutHostIsDeviceUnavailable(t *testing.T) {
	var source *Source
	if _, err := source.Acquire(context.Background()); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable, got %v", err)
	}
	if _, err := NewSource(nil, logging.NewNop()).Acquire(context.Background()); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable for missing host, got %v", err)
	}
}

func TestAcquireFailurePropagates(t *testing.T) {
	denied := services.Wrap(services.ErrPermissionDenied, "capturing", "open", "", nil)
	source := NewSource(&stubHost{err: denied}, logging.NewNop())
	handle, err := source.Acquire(context.Background())
	if !errors.Is(err, services.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if handle != nil {
		t.Fatal("expected nil handle on failure")
	}
	if source.Active() {
		t.Fatal("source must not be active after failed acquire")
	}
}

func TestClassifyOpenError(t *testing.T) {
	cases := []struct {
		errno unix.Errno
		want  error
	}{
		{unix.EACCES, services.ErrPermissionDenied},
		{unix.EPERM, services.ErrPermissionDenied},
		{unix.ENOENT, services.ErrDeviceUnavailable},
		{unix.EBUSY, services.ErrDeviceUnavailable},
		{unix.ENODEV, services.ErrDeviceUnavailable},
	}
	for _, tc := range cases {
		err := classifyOpenError("/dev/video9", tc.errno)
		if !errors.Is(err, tc.want) {
			t.Fatalf("errno %v: expected %v, got %v", tc.errno, tc.want, err)
		}
		if !errors.Is(err, tc.errno) {
			t.Fatalf("errno %v must stay in the chain", tc.errno)
		}
	}
}
