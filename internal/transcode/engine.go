package transcode

import (
	"context"
	"errors"
	"sync"
)

// Engine re-encodes a named input into the delivery format.
type Engine interface {
	Transcode(ctx context.Context, input []byte, inputName string) ([]byte, error)
}

// Loader constructs an Engine. Loading may be expensive.
type Loader func(ctx context.Context) (Engine, error)

// LazyEngine loads an Engine on first use and reuses it for the rest of the
// process. A failed load is not remembered, so a later call tries again.
type LazyEngine struct {
	load Loader

	mu     sync.Mutex
	engine Engine
	loads  int
}

// NewLazyEngine wraps load with load-once semantics.
func NewLazyEngine(load Loader) *LazyEngine {
	return &LazyEngine{load: load}
}

// Get returns the loaded engine, loading it if necessary. Concurrent callers
// wait for a single in-flight load.
func (l *LazyEngine) Get(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		return l.engine, nil
	}
	if l.load == nil {
		return nil, errors.New("no transcoding engine configured")
	}
	l.loads++
	engine, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, errors.New("transcoding engine loader returned nil")
	}
	l.engine = engine
	return engine, nil
}

// Loaded reports whether an engine is ready without triggering a load.
func (l *LazyEngine) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine != nil
}

// LoadAttempts returns how many times the loader has been invoked.
func (l *LazyEngine) LoadAttempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}
