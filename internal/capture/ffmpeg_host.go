package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
)

const (
	defaultStopTimeout  = 10 * time.Second
	defaultStartupGrace = 750 * time.Millisecond
	probeTimeout        = 15 * time.Second
)

// FFmpegOptions configures FFmpegHost.
type FFmpegOptions struct {
	Binary           string
	VideoDevice      string
	AudioDevice      string
	InputFormat      string
	AudioInputFormat string
	ChunkBytes       int
	LockPath         string
	StopTimeout      time.Duration
	StartupGrace     time.Duration
}

// FFmpegOptionsFromConfig derives host options from the loaded configuration.
func FFmpegOptionsFromConfig(cfg *config.Config) FFmpegOptions {
	return FFmpegOptions{
		Binary:           cfg.FFmpegBinary(),
		VideoDevice:      cfg.Capture.VideoDevice,
		AudioDevice:      cfg.Capture.AudioDevice,
		InputFormat:      cfg.Capture.InputFormat,
		AudioInputFormat: cfg.Capture.AudioInputFormat,
		ChunkBytes:       cfg.Capture.ChunkBytes,
		LockPath:         cfg.CaptureLockPath(),
	}
}

// FFmpegHost records from V4L2/ALSA devices through an ffmpeg subprocess.
type FFmpegHost struct {
	opts   FFmpegOptions
	logger *slog.Logger

	probeOnce sync.Once
	caps      Capabilities
	probeErr  error
}

// NewFFmpegHost constructs a host. The capability table is probed on first use.
func NewFFmpegHost(opts FFmpegOptions, logger *slog.Logger) *FFmpegHost {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = 64 * 1024
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = defaultStartupGrace
	}
	return &FFmpegHost{opts: opts, logger: logging.NewComponentLogger(logger, "ffmpeg-capture")}
}

// Acquire locks the capture device for this process and opens the video node.
func (h *FFmpegHost) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "capturing", "acquire", "cancelled", err)
	}
	stream := &ffmpegStream{fd: -1, label: h.describe()}

	if h.opts.LockPath != "" {
		lock := flock.New(h.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrDeviceUnavailable, "capturing", "lock", "acquire capture lock", err)
		}
		if !ok {
			return nil, services.Wrap(services.ErrDeviceUnavailable, "capturing", "lock", "camera is in use by another interviewcoach session", nil)
		}
		stream.lock = lock
	}

	if h.opts.InputFormat == "v4l2" {
		fd, err := openDevice(h.opts.VideoDevice)
		if err != nil {
			_ = stream.Close()
			return nil, err
		}
		stream.fd = fd
	}
	return stream, nil
}

// IsTypeSupported reports whether the local ffmpeg build can mux and encode mimeType.
func (h *FFmpegHost) IsTypeSupported(mimeType string) bool {
	caps, err := h.Capabilities()
	if err != nil {
		return false
	}
	return caps.Supports(mimeType)
}

// Capabilities returns the probed ffmpeg capability table.
func (h *FFmpegHost) Capabilities() (Capabilities, error) {
	h.probeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		h.caps, h.probeErr = ProbeCapabilities(ctx, h.opts.Binary)
		if h.probeErr != nil {
			logging.WarnWithContext(h.logger, "ffmpeg capability probe failed", "capability_probe_failed",
				logging.Error(h.probeErr),
				logging.String(logging.FieldErrorHint, "install ffmpeg or set transcode.ffmpeg_binary"),
				logging.String(logging.FieldImpact, "no recording format will be reported as supported"),
			)
		}
	})
	return h.caps, h.probeErr
}

// NewEncoder prepares an ffmpeg encoder for mimeType.
func (h *FFmpegHost) NewEncoder(stream Stream, mimeType string) (Encoder, error) {
	if stream == nil {
		return nil, errors.New("no capture stream")
	}
	profile, ok := ProfileFor(mimeType)
	if !ok {
		return nil, fmt.Errorf("unsupported recording format %q", mimeType)
	}
	if !h.IsTypeSupported(mimeType) {
		return nil, fmt.Errorf("ffmpeg cannot encode %q (muxer %s, encoders %s/%s)", mimeType, profile.Muxer, profile.VideoEncoder, profile.AudioEncoder)
	}
	return &ffmpegEncoder{opts: h.opts, profile: profile, logger: h.logger}, nil
}

func (h *FFmpegHost) describe() string {
	parts := []string{h.opts.InputFormat + ":" + h.opts.VideoDevice}
	if h.audioEnabled() {
		parts = append(parts, h.opts.AudioInputFormat+":"+h.opts.AudioDevice)
	}
	return strings.Join(parts, "+")
}

func (h *FFmpegHost) audioEnabled() bool {
	return audioEnabled(h.opts)
}

func audioEnabled(opts FFmpegOptions) bool {
	device := strings.TrimSpace(opts.AudioDevice)
	return opts.AudioInputFormat != "" && device != "" && !strings.EqualFold(device, "none")
}

type ffmpegStream struct {
	lock  *flock.Flock
	fd    int
	label string

	once sync.Once
	err  error
}

func (s *ffmpegStream) Describe() string { return s.label }

func (s *ffmpegStream) Close() error {
	s.once.Do(func() {
		var errs []error
		if err := closeDevice(s.fd); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
		s.fd = -1
		if s.lock != nil {
			if err := s.lock.Unlock(); err != nil {
				errs = append(errs, fmt.Errorf("release capture lock: %w", err))
			}
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}
