package metrics_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"interviewcoach/internal/metrics"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/services"
	"interviewcoach/internal/sessions"
)

func TestObserveWritesTextfileOnTerminalPhases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "interviewcoach.prom")
	m := metrics.New(path, nil)
	ctx := context.Background()

	m.Observe(ctx, pipeline.State{Phase: pipeline.PhaseStopped, Previous: pipeline.PhaseCapturing, PreviousDuration: 30 * time.Second, RecordingBytes: 4096})
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("textfile should only be written when a session ends")
	}
	m.Observe(ctx, pipeline.State{Phase: pipeline.PhaseUploading, Previous: pipeline.PhaseConverting, PreviousDuration: 2 * time.Second, ArtifactBytes: 2048, Transcoded: true})
	m.Observe(ctx, pipeline.State{Phase: pipeline.PhaseDone, Previous: pipeline.PhaseUploading, PreviousDuration: time.Second, UpdatedAt: time.Unix(1700000000, 0)})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`interviewcoach_sessions_total{outcome="done"} 1`,
		`interviewcoach_recording_bytes 4096`,
		`interviewcoach_artifact_bytes 2048`,
		`interviewcoach_transcoded_total 1`,
		`interviewcoach_phase_duration_seconds_count{phase="capturing"} 1`,
		`interviewcoach_last_success_timestamp_seconds 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestObserveCountsFailuresByKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	m := metrics.New(path, nil)
	m.Observe(context.Background(), pipeline.State{
		Phase:       pipeline.PhaseFailed,
		FailedPhase: pipeline.PhaseConverting,
		Err:         services.Wrap(services.ErrTranscode, "converting", "re-encode", "", errors.New("boom")),
	})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `interviewcoach_failures_total{kind="transcode",phase="converting"} 1`) {
		t.Fatalf("missing failure counter:\n%s", data)
	}
}

func TestWriteTextfileWithoutPathIsNoop(t *testing.T) {
	if err := metrics.New("", nil).WriteTextfile(""); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
}

type storedHistory struct {
	totals sessions.Totals
	err    error
}

func (h storedHistory) Totals(context.Context) (sessions.Totals, error) {
	return h.totals, h.err
}

func TestSeedContinuesCountsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	m := metrics.New(path, nil)
	history := storedHistory{totals: sessions.Totals{
		Done:       4,
		Failed:     2,
		Transcoded: 3,
		Failures: []sessions.FailureCount{
			{Phase: pipeline.PhaseUploading, Kind: "upload", Count: 2},
		},
		LastSuccess: time.Unix(1600000000, 0),
	}}
	if err := m.Seed(context.Background(), history); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	m.Observe(context.Background(), pipeline.State{
		Phase:       pipeline.PhaseFailed,
		FailedPhase: pipeline.PhaseUploading,
		Err:         &services.UploadError{StatusCode: 500, Body: "server error"},
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`interviewcoach_sessions_total{outcome="done"} 4`,
		`interviewcoach_sessions_total{outcome="failed"} 3`,
		`interviewcoach_failures_total{kind="upload",phase="uploading"} 3`,
		`interviewcoach_transcoded_total 3`,
		`interviewcoach_last_success_timestamp_seconds 1.6e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestSeedReportsHistoryErrors(t *testing.T) {
	m := metrics.New("", nil)
	if err := m.Seed(context.Background(), storedHistory{err: errors.New("locked")}); err == nil {
		t.Fatal("expected seed error")
	}
}
