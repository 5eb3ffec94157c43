package pipeline_test

import (
	"errors"
	"testing"

	"interviewcoach/internal/pipeline"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		event pipeline.Event
		want  pipeline.Phase
	}{
		{pipeline.EventStart, pipeline.PhaseCapturing},
		{pipeline.EventStop, pipeline.PhaseStopped},
		{pipeline.EventConvert, pipeline.PhaseConverting},
		{pipeline.EventUpload, pipeline.PhaseUploading},
		{pipeline.EventComplete, pipeline.PhaseDone},
	}
	phase := pipeline.PhaseIdle
	for _, step := range steps {
		next, err := pipeline.Transition(phase, step.event)
		if err != nil {
			t.Fatalf("%s on %s: %v", step.event, phase, err)
		}
		if next != step.want {
			t.Fatalf("%s on %s: got %s want %s", step.event, phase, next, step.want)
		}
		phase = next
	}
}

func TestTransitionFailFromEveryNonTerminalPhase(t *testing.T) {
	for _, phase := range pipeline.AllPhases() {
		next, err := pipeline.Transition(phase, pipeline.EventFail)
		if phase.Terminal() {
			if !errors.Is(err, pipeline.ErrInvalidTransition) || next != phase {
				t.Fatalf("%s should be absorbing, got %s %v", phase, next, err)
			}
			continue
		}
		if err != nil || next != pipeline.PhaseFailed {
			t.Fatalf("fail from %s: got %s %v", phase, next, err)
		}
	}
}

func TestTransitionRejectsOutOfOrderEvents(t *testing.T) {
	cases := []struct {
		from  pipeline.Phase
		event pipeline.Event
	}{
		{pipeline.PhaseIdle, pipeline.EventStop},
		{pipeline.PhaseCapturing, pipeline.EventStart},
		{pipeline.PhaseStopped, pipeline.EventStart},
		{pipeline.PhaseConverting, pipeline.EventStart},
		{pipeline.PhaseUploading, pipeline.EventConvert},
		{pipeline.PhaseIdle, pipeline.EventUpload},
		{pipeline.PhaseDone, pipeline.EventStart},
		{pipeline.PhaseFailed, pipeline.EventStart},
	}
	for _, tc := range cases {
		next, err := pipeline.Transition(tc.from, tc.event)
		if !errors.Is(err, pipeline.ErrInvalidTransition) {
			t.Fatalf("%s on %s: expected ErrInvalidTransition, got %v", tc.event, tc.from, err)
		}
		if next != tc.from {
			t.Fatalf("%s on %s: phase changed to %s", tc.event, tc.from, next)
		}
	}
}

func TestLoadEntersAtStopped(t *testing.T) {
	next, err := pipeline.Transition(pipeline.PhaseIdle, pipeline.EventLoad)
	if err != nil || next != pipeline.PhaseStopped {
		t.Fatalf("load: got %s %v", next, err)
	}
}

func TestParsePhase(t *testing.T) {
	if phase, ok := pipeline.ParsePhase(" Uploading "); !ok || phase != pipeline.PhaseUploading {
		t.Fatalf("ParsePhase = %s %v", phase, ok)
	}
	if _, ok := pipeline.ParsePhase("paused"); ok {
		t.Fatal("unexpected phase parsed")
	}
}
