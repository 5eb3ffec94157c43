package main

import (
	"testing"
	"time"

	"interviewcoach/internal/pipeline"
)

func testNow() time.Time {
	return time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
}

func TestFormatHelpers(t *testing.T) {
	if got := formatBytes(0); got != "-" {
		t.Fatalf("formatBytes(0) = %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KiB" {
		t.Fatalf("formatBytes(1536) = %q", got)
	}
	if got := formatDuration(90 * time.Second); got != "1m30s" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := shortID("0f7c1a52-6f7e"); got != "0f7c1a52" {
		t.Fatalf("shortID = %q", got)
	}
	if got := phaseLabel(pipeline.PhaseUploading); got != "Uploading" {
		t.Fatalf("phaseLabel = %q", got)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Uploading", statusInfo, "Uploading...", false)
	if line != "  Uploading:           [INFO] Uploading..." {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Done", statusOK, "", true)
	if colored != ansiGreen+"  Done:                [OK]"+ansiReset {
		t.Fatalf("unexpected colored line %q", colored)
	}
}

func TestSessionErrorPrefersStatus(t *testing.T) {
	failed := pipeline.State{Phase: pipeline.PhaseFailed, Status: "Error accessing camera: denied"}
	if err := sessionError(failed, nil); err == nil || err.Error() != failed.Status {
		t.Fatalf("unexpected error %v", err)
	}
	if err := sessionError(pipeline.State{Phase: pipeline.PhaseDone}, nil); err != nil {
		t.Fatalf("done session should not error: %v", err)
	}
}
