package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"interviewcoach/internal/analysis"
	"interviewcoach/internal/capture"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/recorder"
	"interviewcoach/internal/services"
	"interviewcoach/internal/transcode"
)

var (
	// ErrBusy is returned when a session is already between start and a terminal phase.
	ErrBusy = errors.New("a session is already in progress")
	// ErrNotCapturing is returned by Stop when nothing is being recorded.
	ErrNotCapturing = errors.New("no recording in progress")
)

// StatusLoaded is shown when a session starts from an existing file.
const StatusLoaded = "Recording loaded from file"

// Normalizer converts a finalized recording into the delivery format.
type Normalizer interface {
	IsCanonical(mimeType string) bool
	EngineLoaded() bool
	Prepare(ctx context.Context) error
	Normalize(ctx context.Context, recording recorder.FinalizedRecording) (transcode.Artifact, error)
}

// Uploader delivers an artifact and returns the analysis.
type Uploader interface {
	Upload(ctx context.Context, artifact transcode.Artifact, filename string) (*analysis.Result, error)
}

// Outcome is everything a finished session hands to the presenter.
type Outcome struct {
	State     State
	Recording recorder.FinalizedRecording
	Artifact  transcode.Artifact
}

// Presenter receives the analysis of a completed session.
type Presenter interface {
	Present(ctx context.Context, outcome Outcome) error
}

// Observer is notified after every state change.
type Observer interface {
	Observe(ctx context.Context, state State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, state State)

func (f ObserverFunc) Observe(ctx context.Context, state State) { f(ctx, state) }

// Options configures a Controller.
type Options struct {
	Source      *capture.Source
	Preferences []string
	Normalizer  Normalizer
	Uploader    Uploader
	Filename    string
	Presenter   Presenter
	Observers   []Observer
	Logger      *slog.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Controller runs one session at a time through
// Idle → Capturing → Stopped → Converting → Uploading → Done, or Failed.
type Controller struct {
	source      *capture.Source
	preferences []string
	normalizer  Normalizer
	uploader    Uploader
	filename    string
	presenter   Presenter
	observers   []Observer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string

	mu       sync.Mutex
	state    State
	starting bool
	handle   *capture.Handle
	rec      *recorder.Recorder
}

// New validates opts and returns an idle controller.
func New(opts Options) (*Controller, error) {
	if opts.Normalizer == nil {
		return nil, errors.New("pipeline: normalizer is required")
	}
	if opts.Uploader == nil {
		return nil, errors.New("pipeline: uploader is required")
	}
	c := &Controller{
		source:      opts.Source,
		preferences: append([]string(nil), opts.Preferences...),
		normalizer:  opts.Normalizer,
		uploader:    opts.Uploader,
		filename:    opts.Filename,
		presenter:   opts.Presenter,
		observers:   append([]Observer(nil), opts.Observers...),
		logger:      logging.NewComponentLogger(opts.Logger, "pipeline"),
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if c.filename == "" {
		c.filename = "interview.mp4"
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	now := c.now()
	c.state = State{Phase: PhaseIdle, Status: StatusReady, StartedAt: now, PhaseStartedAt: now, UpdatedAt: now}
	return c, nil
}

// State returns a snapshot of the current session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a new capture session. Calling Start while capturing is a
// no-op; calling it while a stopped session is still converting or uploading
// returns ErrBusy.
func (c *Controller) Start(ctx context.Context) error {
	if c.source == nil {
		return errors.New("pipeline: no capture source configured")
	}
	c.mu.Lock()
	if c.state.Phase == PhaseCapturing {
		c.mu.Unlock()
		c.logger.Debug("start ignored; already capturing")
		return nil
	}
	if c.starting || c.state.Phase.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.starting = true
	c.state = c.freshState(OriginCapture)
	snapshot := c.state
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	ctx = services.WithSessionID(ctx, snapshot.SessionID)
	c.emit(ctx, snapshot)

	handle, err := c.source.Acquire(ctx)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	host := c.source.Host()
	mimeType := capture.Negotiate(c.preferences, host.IsTypeSupported)
	logging.WithContext(ctx, c.logger).Info("recording format negotiated",
		logging.String("mime_type", mimeType),
		logging.Any("preferences", c.preferences),
	)

	rec := recorder.New(host, c.logger)
	if err := rec.Start(handle.Stream(), mimeType); err != nil {
		_ = handle.Release()
		c.fail(ctx, err)
		return err
	}

	c.mu.Lock()
	c.handle = handle
	c.rec = rec
	c.mu.Unlock()
	return c.advance(ctx, EventStart, StatusRecording, func(s *State) {
		s.MIMEType = mimeType
	})
}

// Stop ends capture, releases the camera, and drives the recording through
// conversion and upload. It returns the terminal state of the session.
func (c *Controller) Stop(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseCapturing {
		snapshot := c.state
		c.mu.Unlock()
		return snapshot, ErrNotCapturing
	}
	handle, rec := c.handle, c.rec
	c.handle, c.rec = nil, nil
	ctx = services.WithSessionID(ctx, c.state.SessionID)
	c.mu.Unlock()

	recording, stopErr := rec.Stop()
	_ = handle.Release()

	if err := c.advance(ctx, EventStop, StatusFinalizing, func(s *State) {
		s.RecordingBytes = len(recording.Data)
	}); err != nil {
		return c.State(), err
	}
	if recording.Empty() {
		err := services.Wrap(services.ErrEmptyRecording, "stopped", "finalize", "no media was captured", stopErr)
		c.fail(ctx, err)
		return c.State(), err
	}
	if stopErr != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "encoder reported an error on stop", "encoder_stop_error",
			logging.Error(stopErr),
			logging.String(logging.FieldImpact, "the end of the recording may be truncated"),
		)
	}
	return c.process(ctx, recording)
}

// Abandon releases the camera of a capturing session and fails it with
// reason. It does nothing when no capture is active.
func (c *Controller) Abandon(ctx context.Context, reason string) {
	c.mu.Lock()
	if c.state.Phase != PhaseCapturing {
		c.mu.Unlock()
		return
	}
	handle, rec := c.handle, c.rec
	c.handle, c.rec = nil, nil
	ctx = services.WithSessionID(ctx, c.state.SessionID)
	c.mu.Unlock()

	_, _ = rec.Stop()
	_ = handle.Release()
	if reason == "" {
		reason = "recording abandoned"
	}
	c.fail(ctx, errors.New(reason))
}

// Analyze runs an existing recording through conversion and upload as a new
// session that starts in the stopped phase.
func (c *Controller) Analyze(ctx context.Context, recording recorder.FinalizedRecording, sourcePath string) (State, error) {
	c.mu.Lock()
	if c.starting || c.state.Phase.Busy() {
		snapshot := c.state
		c.mu.Unlock()
		return snapshot, ErrBusy
	}
	c.state = c.freshState(OriginFile)
	c.state.SourcePath = sourcePath
	c.state.MIMEType = recording.MIMEType
	snapshot := c.state
	c.mu.Unlock()

	ctx = services.WithSessionID(ctx, snapshot.SessionID)
	c.emit(ctx, snapshot)
	if err := c.advance(ctx, EventLoad, StatusLoaded, func(s *State) {
		s.RecordingBytes = len(recording.Data)
	}); err != nil {
		return c.State(), err
	}
	if recording.Empty() {
		err := services.Wrap(services.ErrEmptyRecording, "stopped", "load", sourcePath, nil)
		c.fail(ctx, err)
		return c.State(), err
	}
	return c.process(ctx, recording)
}

func (c *Controller) process(ctx context.Context, recording recorder.FinalizedRecording) (State, error) {
	switch {
	case c.normalizer.IsCanonical(recording.MIMEType):
		if err := c.advance(ctx, EventConvert, StatusPreparing, nil); err != nil {
			return c.State(), err
		}
	case !c.normalizer.EngineLoaded():
		if err := c.advance(ctx, EventConvert, StatusLoadingEngine, nil); err != nil {
			return c.State(), err
		}
		if err := c.normalizer.Prepare(services.WithPhase(ctx, string(PhaseConverting))); err != nil {
			c.fail(ctx, err)
			return c.State(), err
		}
		c.setStatus(ctx, StatusConverting)
	default:
		if err := c.advance(ctx, EventConvert, StatusConverting, nil); err != nil {
			return c.State(), err
		}
	}

	artifact, err := c.normalizer.Normalize(services.WithPhase(ctx, string(PhaseConverting)), recording)
	if err != nil {
		c.fail(ctx, err)
		return c.State(), err
	}

	if err := c.advance(ctx, EventUpload, StatusUploading, func(s *State) {
		s.ArtifactBytes = len(artifact.Data)
		s.Transcoded = artifact.Transcoded
	}); err != nil {
		return c.State(), err
	}
	result, err := c.uploader.Upload(services.WithPhase(ctx, string(PhaseUploading)), artifact, c.filename)
	if err != nil {
		c.fail(ctx, err)
		return c.State(), err
	}

	if err := c.advance(ctx, EventComplete, StatusDone, func(s *State) {
		s.Result = result
	}); err != nil {
		return c.State(), err
	}
	final := c.State()
	if c.presenter != nil {
		outcome := Outcome{State: final, Recording: recording, Artifact: artifact}
		if err := c.presenter.Present(ctx, outcome); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, c.logger), "presenting analysis failed", "present_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the analysis is stored but was not displayed"),
				logging.String(logging.FieldErrorHint, "run `interviewcoach sessions show "+final.SessionID+"`"),
			)
		}
	}
	return final, nil
}

func (c *Controller) freshState(origin Origin) State {
	now := c.now()
	return State{
		SessionID:      c.newID(),
		Origin:         origin,
		Phase:          PhaseIdle,
		Status:         StatusReady,
		StartedAt:      now,
		PhaseStartedAt: now,
		UpdatedAt:      now,
	}
}

// advance applies event, updates the status, and notifies observers.
func (c *Controller) advance(ctx context.Context, event Event, status string, mutate func(*State)) error {
	c.mu.Lock()
	from := c.state.Phase
	next, err := Transition(from, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	now := c.now()
	c.state.Previous = from
	c.state.PreviousDuration = now.Sub(c.state.PhaseStartedAt)
	c.state.Phase = next
	c.state.Status = status
	c.state.PhaseStartedAt = now
	c.state.UpdatedAt = now
	if mutate != nil {
		mutate(&c.state)
	}
	snapshot := c.state
	c.mu.Unlock()

	logging.WithContext(services.WithPhase(ctx, string(next)), c.logger).Info("phase transition",
		logging.String("from", string(from)),
		logging.String("to", string(next)),
		logging.String("status", status),
		logging.String(logging.FieldEventType, "phase_transition"),
	)
	c.emit(ctx, snapshot)
	return nil
}

func (c *Controller) setStatus(ctx context.Context, status string) {
	c.mu.Lock()
	c.state.Status = status
	c.state.UpdatedAt = c.now()
	snapshot := c.state
	c.mu.Unlock()
	c.emit(ctx, snapshot)
}

func (c *Controller) fail(ctx context.Context, cause error) {
	c.mu.Lock()
	from := c.state.Phase
	if _, err := Transition(from, EventFail); err != nil {
		c.mu.Unlock()
		c.logger.Debug("failure after terminal phase ignored", logging.Error(cause))
		return
	}
	now := c.now()
	c.state.Previous = from
	c.state.PreviousDuration = now.Sub(c.state.PhaseStartedAt)
	c.state.Phase = PhaseFailed
	c.state.FailedPhase = from
	c.state.Err = cause
	c.state.Status = failureStatus(cause)
	c.state.PhaseStartedAt = now
	c.state.UpdatedAt = now
	snapshot := c.state
	c.mu.Unlock()

	logging.ErrorWithContext(logging.WithContext(services.WithPhase(ctx, string(from)), c.logger), "session failed", "session_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.String("status", snapshot.Status),
		logging.String(logging.FieldErrorHint, failureHint(cause)),
	)
	c.emit(ctx, snapshot)
}

func (c *Controller) emit(ctx context.Context, state State) {
	for _, observer := range c.observers {
		if observer != nil {
			observer.Observe(ctx, state)
		}
	}
}

func failureHint(err error) string {
	switch services.Classify(err) {
	case services.ErrPermissionDenied:
		return "grant access to the camera device (e.g. add the user to the video group)"
	case services.ErrDeviceUnavailable:
		return "check the camera is connected and not used by another application"
	case services.ErrRecorderInit:
		return "choose a different capture.preferred_formats entry"
	case services.ErrTranscode:
		return "run `interviewcoach doctor` to check ffmpeg"
	case services.ErrUpload:
		return "check analysis.endpoint and network connectivity"
	case services.ErrEmptyRecording:
		return "record for longer before stopping"
	default:
		return "check logs for details"
	}
}
