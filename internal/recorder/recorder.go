package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateStopped   State = "stopped"
)

// FinalizedRecording is the single blob assembled from every emitted chunk.
type FinalizedRecording struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether no media was captured.
func (r FinalizedRecording) Empty() bool {
	return len(r.Data) == 0
}

// EncoderFactory creates an encoder for a stream in the negotiated format.
type EncoderFactory interface {
	NewEncoder(stream capture.Stream, mimeType string) (capture.Encoder, error)
}

// Recorder buffers encoded chunks while capturing and finalizes them on stop.
// A Recorder records exactly once.
type Recorder struct {
	factory EncoderFactory
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	mimeType string
	encoder  capture.Encoder
	chunks   [][]byte
	final    *FinalizedRecording
	stopErr  error
	stopOnce sync.Once
	stopDone chan struct{}
}

// New constructs an idle recorder.
func New(factory EncoderFactory, logger *slog.Logger) *Recorder {
	return &Recorder{
		factory:  factory,
		logger:   logging.NewComponentLogger(logger, "recorder"),
		state:    StateIdle,
		stopDone: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// MIMEType returns the negotiated format once started.
func (r *Recorder) MIMEType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mimeType
}

// Start moves Idle to Capturing and begins collecting chunks. Failures wrap
// services.ErrRecorderInit and leave the recorder Idle.
func (r *Recorder) Start(stream capture.Stream, mimeType string) error {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("recorder start: invalid state %s", state)
	}
	r.mu.Unlock()

	if r.factory == nil {
		return services.Wrap(services.ErrRecorderInit, "capturing", "start recorder", "no encoder available", nil)
	}
	if mimeType == "" {
		return services.Wrap(services.ErrRecorderInit, "capturing", "start recorder", "no recording format negotiated", nil)
	}
	encoder, err := r.factory.NewEncoder(stream, mimeType)
	if err != nil {
		return services.Wrap(services.ErrRecorderInit, "capturing", "start recorder", mimeType, err)
	}

	r.mu.Lock()
	r.mimeType = mimeType
	r.encoder = encoder
	r.state = StateCapturing
	r.mu.Unlock()

	if err := encoder.Start(r.append); err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.encoder = nil
		r.chunks = nil
		r.mu.Unlock()
		return services.Wrap(services.ErrRecorderInit, "capturing", "start encoder", mimeType, err)
	}
	r.logger.Info("recording started", logging.String("mime_type", mimeType))
	return nil
}

func (r *Recorder) append(chunk capture.Chunk) {
	if len(chunk.Data) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.final != nil {
		return
	}
	r.chunks = append(r.chunks, chunk.Data)
}

// Stop moves Capturing to Stopped, waits for the encoder's final chunk, and
// finalizes. Later calls return the same recording without side effects.
// The error reports an encoder shutdown problem; the recording is still
// returned and may be empty.
func (r *Recorder) Stop() (FinalizedRecording, error) {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return FinalizedRecording{}, errors.New("recorder stop: not started")
	}
	r.mu.Unlock()

	r.stopOnce.Do(func() {
		defer close(r.stopDone)
		r.mu.Lock()
		encoder := r.encoder
		r.state = StateStopped
		r.mu.Unlock()

		var stopErr error
		if encoder != nil {
			stopErr = encoder.Stop()
		}

		r.mu.Lock()
		final := finalize(r.chunks, r.mimeType)
		r.final = &final
		r.chunks = nil
		r.stopErr = stopErr
		r.mu.Unlock()

		attrs := []logging.Attr{
			logging.String("mime_type", final.MIMEType),
			logging.Int("bytes", len(final.Data)),
		}
		if stopErr != nil {
			attrs = append(attrs, logging.Error(stopErr))
		}
		r.logger.Info("recording finalized", logging.Args(attrs...)...)
	})
	<-r.stopDone

	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.final, r.stopErr
}

// finalize concatenates chunks in order into one recording.
func finalize(chunks [][]byte, mimeType string) FinalizedRecording {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	data := make([]byte, 0, total)
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}
	return FinalizedRecording{Data: data, MIMEType: mimeType}
}
