package testsupport

import (
	"context"
	"errors"
	"sync"

	"interviewcoach/internal/capture"
)

// FakeHost is an in-memory capture.Host. Supported lists the MIME types the
// fake reports as recordable; Chunks are emitted by every encoder it creates.
type FakeHost struct {
	Supported  map[string]bool
	Chunks     [][]byte
	AcquireErr error
	EncoderErr error
	StartErr   error
	StopErr    error

	mu           sync.Mutex
	acquired     int
	released     int
	encoders     int
	lastMIMEType string
}

// Acquire returns a fake stream or AcquireErr.
func (h *FakeHost) Acquire(context.Context) (capture.Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.AcquireErr != nil {
		return nil, h.AcquireErr
	}
	h.acquired++
	return &fakeStream{host: h}, nil
}

// IsTypeSupported consults Supported.
func (h *FakeHost) IsTypeSupported(mimeType string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Supported[mimeType]
}

// NewEncoder returns an encoder replaying Chunks, or EncoderErr.
func (h *FakeHost) NewEncoder(stream capture.Stream, mimeType string) (capture.Encoder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if stream == nil {
		return nil, errors.New("nil stream")
	}
	if h.EncoderErr != nil {
		return nil, h.EncoderErr
	}
	h.encoders++
	h.lastMIMEType = mimeType
	return &FakeEncoder{MIMEType: mimeType, Chunks: h.Chunks, StartErr: h.StartErr, StopErr: h.StopErr}, nil
}

// Acquired returns how many streams were handed out.
func (h *FakeHost) Acquired() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acquired
}

// Released returns how many stream closes were observed.
func (h *FakeHost) Released() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Encoders returns how many encoders were created.
func (h *FakeHost) Encoders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoders
}

// LastMIMEType returns the format passed to the last NewEncoder call.
func (h *FakeHost) LastMIMEType() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastMIMEType
}

type fakeStream struct {
	host *FakeHost
}

func (s *fakeStream) Describe() string { return "fake:camera+mic" }

func (s *fakeStream) Close() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.host.released++
	return nil
}

// FakeEncoder emits the first half of Chunks on Start and the rest on Stop,
// mimicking a final flush.
type FakeEncoder struct {
	MIMEType string
	Chunks   [][]byte
	StartErr error
	StopErr  error

	mu      sync.Mutex
	onChunk func(capture.Chunk)
	next    int
	stops   int
}

func (e *FakeEncoder) Start(onChunk func(capture.Chunk)) error {
	if e.StartErr != nil {
		return e.StartErr
	}
	e.mu.Lock()
	e.onChunk = onChunk
	half := len(e.Chunks) / 2
	e.mu.Unlock()
	e.emitUntil(half)
	return nil
}

func (e *FakeEncoder) Stop() error {
	e.mu.Lock()
	e.stops++
	e.mu.Unlock()
	e.emitUntil(len(e.Chunks))
	return e.StopErr
}

// Stops returns how many times Stop was called.
func (e *FakeEncoder) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *FakeEncoder) emitUntil(limit int) {
	for {
		e.mu.Lock()
		if e.next >= limit || e.onChunk == nil {
			e.mu.Unlock()
			return
		}
		data := e.Chunks[e.next]
		e.next++
		fn := e.onChunk
		e.mu.Unlock()
		if len(data) > 0 {
			fn(capture.Chunk{Data: append([]byte(nil), data...), MIMEType: e.MIMEType})
		}
	}
}
