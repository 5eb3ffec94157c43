package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"interviewcoach/internal/analysis"
)

// Phase is the current step of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCapturing  Phase = "capturing"
	PhaseStopped    Phase = "stopped"
	PhaseConverting Phase = "converting"
	PhaseUploading  Phase = "uploading"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

var allPhases = []Phase{
	PhaseIdle,
	PhaseCapturing,
	PhaseStopped,
	PhaseConverting,
	PhaseUploading,
	PhaseDone,
	PhaseFailed,
}

// AllPhases returns every phase in pipeline order.
func AllPhases() []Phase {
	out := make([]Phase, len(allPhases))
	copy(out, allPhases)
	return out
}

// ParsePhase converts a stored phase name back into a Phase.
func ParsePhase(value string) (Phase, bool) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(value)))
	for _, phase := range allPhases {
		if phase == normalized {
			return phase, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions leave p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Busy reports whether a session in p is still working through the pipeline.
func (p Phase) Busy() bool {
	switch p {
	case PhaseCapturing, PhaseStopped, PhaseConverting, PhaseUploading:
		return true
	default:
		return false
	}
}

// Event drives a phase transition.
type Event string

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventLoad     Event = "load"
	EventConvert  Event = "convert"
	EventUpload   Event = "upload"
	EventComplete Event = "complete"
	EventFail     Event = "fail"
)

// ErrInvalidTransition reports an event that is not accepted in the current phase.
var ErrInvalidTransition = errors.New("invalid phase transition")

type transitionKey struct {
	from  Phase
	event Event
}

var transitions = map[transitionKey]Phase{
	{PhaseIdle, EventStart}:         PhaseCapturing,
	{PhaseIdle, EventLoad}:          PhaseStopped,
	{PhaseCapturing, EventStop}:     PhaseStopped,
	{PhaseStopped, EventConvert}:    PhaseConverting,
	{PhaseConverting, EventUpload}:  PhaseUploading,
	{PhaseUploading, EventComplete}: PhaseDone,
}

// Transition returns the phase reached from `from` on event. Fail is accepted
// from every non-terminal phase; terminal phases accept nothing.
func Transition(from Phase, event Event) (Phase, error) {
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if event == EventFail {
		return PhaseFailed, nil
	}
	next, ok := transitions[transitionKey{from: from, event: event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	return next, nil
}

// Origin tells where a session's recording came from.
type Origin string

const (
	OriginCapture Origin = "capture"
	OriginFile    Origin = "file"
)

// State is a snapshot of one session.
type State struct {
	SessionID string
	Origin    Origin
	Phase     Phase
	Status    string

	// Previous is the phase left by the most recent transition and
	// PreviousDuration how long the session spent in it.
	Previous         Phase
	PreviousDuration time.Duration

	// FailedPhase is the phase that was active when the session failed.
	FailedPhase Phase
	Err         error

	MIMEType       string
	RecordingBytes int
	ArtifactBytes  int
	Transcoded     bool
	SourcePath     string

	Result *analysis.Result

	StartedAt      time.Time
	PhaseStartedAt time.Time
	UpdatedAt      time.Time
}

// ErrorMessage returns the failure text, or "".
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
