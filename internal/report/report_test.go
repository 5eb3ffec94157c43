package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interviewcoach/internal/analysis"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/recorder"
	"interviewcoach/internal/report"
	"interviewcoach/internal/testsupport"
	"interviewcoach/internal/transcode"
)

const sampleResponse = `{
  "facial_analysis": {"confidence": 0.725, "engagement": 0.81, "positivity": 0.35, "anxiety_hint": 0.2,
    "emotions": {"happy": 41.5, "neutral": 52.25, "sad": 6.25}},
  "transcript_analysis": {"filler_hits": 7, "filler_ratio": 0.042, "full_text": "I led the migration.", "mumble_score": "low"},
  "coaching_advice": {"anxiety_score": 0.3, "confidence_score": 0.7, "tip": "Slow down.", "recommendations": ["Pause between points", "Make eye contact"]}
}`

func parseSample(t *testing.T) *analysis.Result {
	t.Helper()
	result, err := analysis.Parse([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return result
}

func TestScoreGradeThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  report.Grade
	}{
		{1, report.GradeGood},
		{0.7, report.GradeGood},
		{0.6999, report.GradeFair},
		{0.4, report.GradeFair},
		{0.3999, report.GradePoor},
		{0, report.GradePoor},
	}
	for _, tc := range tests {
		if got := report.ScoreGrade(tc.score); got != tc.want {
			t.Errorf("ScoreGrade(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := report.FormatPercent(0.725); got != "72.5%" {
		t.Fatalf("FormatPercent = %q", got)
	}
	raw := map[string]string{
		``:             "-",
		`null`:         "-",
		`7`:            "7",
		`0.25`:         "0.25",
		`"low"`:        "low",
		`["um", "uh"]`: `["um","uh"]`,
		`{"um": 2}`:    `{"um":2}`,
	}
	for in, want := range raw {
		if got := report.FormatRaw(json.RawMessage(in)); got != want {
			t.Errorf("FormatRaw(%s) = %q, want %q", in, got, want)
		}
	}
	if got := report.Label("anxiety_hint"); got != "Anxiety Hint" {
		t.Fatalf("Label = %q", got)
	}
}

func TestRenderIncludesAllSections(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Render(&buf, parseSample(t), report.RenderOptions{SessionID: "abc"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Interview Analysis Results (abc)",
		"Facial Analysis",
		"81.0%",
		"72.5%",
		"Dominant emotion: Neutral (52.25%)",
		"Filler Ratio",
		"4.2%",
		"low",
		"I led the migration.",
		"Slow down.",
		"✓ Make eye contact",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("uncoloured render should not contain escape codes")
	}
}

func TestRenderWithoutResult(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Render(&buf, nil, report.RenderOptions{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "No analysis results") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

type indexRecorder struct {
	id, dir string
	err     error
}

func (r *indexRecorder) SetArtifactDir(_ context.Context, id, dir string) error {
	r.id, r.dir = id, dir
	return r.err
}

func TestPresentWritesArtifactsAndRenders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	index := &indexRecorder{}
	var out bytes.Buffer
	presenter := report.NewPresenter(cfg, report.WithOutput(&out), report.WithArtifactIndex(index))

	outcome := pipeline.Outcome{
		State:     pipeline.State{SessionID: "session-1", Phase: pipeline.PhaseDone, Result: parseSample(t)},
		Recording: recorder.FinalizedRecording{Data: []byte{1, 2, 3}, MIMEType: "video/webm;codecs=vp8,opus"},
		Artifact:  transcode.Artifact{Data: []byte{4, 5}, MIMEType: "video/mp4", Transcoded: true},
	}
	if err := presenter.Present(context.Background(), outcome); err != nil {
		t.Fatalf("Present: %v", err)
	}

	dir := cfg.SessionDir("session-1")
	if index.id != "session-1" || index.dir != dir {
		t.Fatalf("artifact dir not recorded: %+v", index)
	}
	recording, err := os.ReadFile(filepath.Join(dir, "recording.webm"))
	if err != nil || !bytes.Equal(recording, []byte{1, 2, 3}) {
		t.Fatalf("recording not written: %v %v", recording, err)
	}
	artifact, err := os.ReadFile(filepath.Join(dir, "interview.mp4"))
	if err != nil || !bytes.Equal(artifact, []byte{4, 5}) {
		t.Fatalf("artifact not written: %v %v", artifact, err)
	}
	stored, err := os.ReadFile(filepath.Join(dir, report.AnalysisFile))
	if err != nil {
		t.Fatalf("analysis.json: %v", err)
	}
	reparsed, err := analysis.Parse(stored)
	if err != nil || reparsed.Coaching.Tip != "Slow down." {
		t.Fatalf("stored analysis unreadable: %v", err)
	}
	if !strings.Contains(out.String(), "Coaching Advice") {
		t.Fatal("expected rendered report")
	}
}

func TestPresentCanonicalRecordingIsNotDuplicated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	presenter := report.NewPresenter(cfg, report.WithOutput(&bytes.Buffer{}), report.WithRender(false))
	outcome := pipeline.Outcome{
		State:     pipeline.State{SessionID: "canonical", Result: parseSample(t)},
		Recording: recorder.FinalizedRecording{Data: []byte{9}, MIMEType: "video/mp4"},
		Artifact:  transcode.Artifact{Data: []byte{9}, MIMEType: "video/mp4"},
	}
	if err := presenter.Present(context.Background(), outcome); err != nil {
		t.Fatalf("Present: %v", err)
	}
	entries, err := os.ReadDir(cfg.SessionDir("canonical"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if strings.Join(names, ",") != "analysis.json,recording.mp4" {
		t.Fatalf("unexpected files %v", names)
	}
}

func TestPresentIgnoresIndexFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	presenter := report.NewPresenter(cfg,
		report.WithOutput(&bytes.Buffer{}),
		report.WithKeepArtifacts(false),
		report.WithArtifactIndex(&indexRecorder{err: errors.New("locked")}),
	)
	state := pipeline.State{SessionID: "idx", Result: parseSample(t)}
	if err := presenter.Present(context.Background(), pipeline.Outcome{State: state}); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := presenter.Present(context.Background(), pipeline.Outcome{}); err == nil {
		t.Fatal("expected error without session id")
	}
}
