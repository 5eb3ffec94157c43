package capture_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
)

const stubListings = `case "$2" in
  -muxers)
    printf 'File formats:\n D. = Demuxing supported\n .E = Muxing supported\n --\n  E mp4             MP4\n DE webm            WebM\n'
    exit 0;;
  -encoders)
    printf 'Encoders:\n V..... = Video\n ------\n V....D libvpx               libvpx VP8\n A....D libopus              libopus Opus\n'
    exit 0;;
esac
`

func writeStubFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" + stubListings + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func newStubHost(t *testing.T, body string) *capture.FFmpegHost {
	t.Helper()
	return capture.NewFFmpegHost(capture.FFmpegOptions{
		Binary:       writeStubFFmpeg(t, body),
		VideoDevice:  "testsrc",
		InputFormat:  "lavfi",
		ChunkBytes:   4,
		LockPath:     filepath.Join(t.TempDir(), "capture.lock"),
		StopTimeout:  5 * time.Second,
		StartupGrace: 50 * time.Millisecond,
	}, logging.NewNop())
}

func TestFFmpegHostReportsProbedFormats(t *testing.T) {
	host := newStubHost(t, "exit 0\n")
	if !host.IsTypeSupported("video/webm;codecs=vp8,opus") {
		t.Fatal("expected webm/vp8 to be supported")
	}
	if host.IsTypeSupported("video/mp4") {
		t.Fatal("mp4 needs libx264 and aac, which the stub lacks")
	}
	got := capture.Negotiate([]string{"video/mp4", "video/webm"}, host.IsTypeSupported)
	if got != "video/webm" {
		t.Fatalf("Negotiate = %q", got)
	}
}

func TestFFmpegHostLockIsExclusive(t *testing.T) {
	host := newStubHost(t, "exit 0\n")
	first, err := host.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := host.Acquire(context.Background()); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable while locked, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	second, err := host.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = second.Close()
}

func TestFFmpegHostMissingDevice(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "capture.lock")
	host := capture.NewFFmpegHost(capture.FFmpegOptions{
		Binary:      writeStubFFmpeg(t, "exit 0\n"),
		VideoDevice: filepath.Join(t.TempDir(), "video42"),
		InputFormat: "v4l2",
		LockPath:    lockPath,
	}, logging.NewNop())
	_, err := host.Acquire(context.Background())
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable, got %v", err)
	}
	// The failed acquisition must not leave the lock held.
	host2 := capture.NewFFmpegHost(capture.FFmpegOptions{
		Binary:      writeStubFFmpeg(t, "exit 0\n"),
		VideoDevice: "testsrc",
		InputFormat: "lavfi",
		LockPath:    lockPath,
	}, logging.NewNop())
	stream, err := host2.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after failed acquisition: %v", err)
	}
	_ = stream.Close()
}

func TestFFmpegEncoderEmitsOrderedChunks(t *testing.T) {
	host := newStubHost(t, "printf '0123456789'\ncat >/dev/null\n")
	stream, err := host.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer stream.Close()

	encoder, err := host.NewEncoder(stream, "video/webm")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	var mu sync.Mutex
	var chunks []capture.Chunk
	if err := encoder.Start(func(c capture.Chunk) {
		mu.Lock()
		chunks = append(chunks, c)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := encoder.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := encoder.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var joined strings.Builder
	for _, c := range chunks {
		if len(c.Data) == 0 {
			t.Fatal("empty chunk emitted")
		}
		if len(c.Data) > 4 {
			t.Fatalf("chunk larger than ChunkBytes: %d", len(c.Data))
		}
		if c.MIMEType != "video/webm" {
			t.Fatalf("unexpected chunk MIME %q", c.MIMEType)
		}
		joined.Write(c.Data)
	}
	if joined.String() != "0123456789" {
		t.Fatalf("unexpected stream %q", joined.String())
	}
}

func TestFFmpegEncoderStartupFailure(t *testing.T) {
	host := newStubHost(t, "echo 'testsrc: No such device' >&2\nexit 1\n")
	stream, err := host.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer stream.Close()

	encoder, err := host.NewEncoder(stream, "video/webm")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	err = encoder.Start(func(capture.Chunk) {})
	if err == nil || !strings.Contains(err.Error(), "No such device") {
		t.Fatalf("expected startup failure with stderr detail, got %v", err)
	}
}

func TestFFmpegHostRejectsUnsupportedEncoder(t *testing.T) {
	host := newStubHost(t, "exit 0\n")
	stream, err := host.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer stream.Close()
	if _, err := host.NewEncoder(stream, "video/mp4"); err == nil {
		t.Fatal("expected mp4 encoder to be rejected")
	}
}
