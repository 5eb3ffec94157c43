package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/pipeline"
)

// File names written into a session directory.
const (
	AnalysisFile  = "analysis.json"
	RecordingBase = "recording"
)

// ArtifactIndex records where a session's files live.
type ArtifactIndex interface {
	SetArtifactDir(ctx context.Context, id, dir string) error
}

// Presenter writes session artifacts to disk and renders the analysis.
type Presenter struct {
	cfg           *config.Config
	index         ArtifactIndex
	out           io.Writer
	color         bool
	render        bool
	keepArtifacts bool
	uploadName    string
	logger        *slog.Logger
}

// Option customizes a Presenter.
type Option func(*Presenter)

// WithOutput sets the writer used for the rendered report.
func WithOutput(w io.Writer) Option {
	return func(p *Presenter) {
		if w != nil {
			p.out = w
			p.color = ShouldColorize(w)
		}
	}
}

// WithColor forces colour on or off.
func WithColor(enabled bool) Option {
	return func(p *Presenter) { p.color = enabled }
}

// WithRender toggles terminal rendering. Artifacts are still written.
func WithRender(enabled bool) Option {
	return func(p *Presenter) { p.render = enabled }
}

// WithKeepArtifacts toggles writing the recording and uploaded file.
// analysis.json is always written.
func WithKeepArtifacts(enabled bool) Option {
	return func(p *Presenter) { p.keepArtifacts = enabled }
}

// WithArtifactIndex records the session directory after writing.
func WithArtifactIndex(index ArtifactIndex) Option {
	return func(p *Presenter) { p.index = index }
}

// WithLogger sets the presenter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presenter) { p.logger = logging.NewComponentLogger(logger, "report") }
}

// NewPresenter builds a presenter writing under cfg.Paths.RecordingsDir.
func NewPresenter(cfg *config.Config, opts ...Option) *Presenter {
	p := &Presenter{
		cfg:           cfg,
		out:           os.Stdout,
		color:         ShouldColorize(os.Stdout),
		render:        true,
		keepArtifacts: true,
		uploadName:    cfg.Analysis.Filename,
		logger:        logging.NewComponentLogger(nil, "report"),
	}
	if p.uploadName == "" {
		p.uploadName = "interview.mp4"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Present implements pipeline.Presenter.
func (p *Presenter) Present(ctx context.Context, outcome pipeline.Outcome) error {
	state := outcome.State
	if state.SessionID == "" {
		return errors.New("present: session id is required")
	}
	dir, err := p.WriteArtifacts(outcome)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("session artifacts written", logging.String("dir", dir))

	if p.index != nil {
		if err := p.index.SetArtifactDir(context.WithoutCancel(ctx), state.SessionID, dir); err != nil {
			logging.WarnWithContext(logger, "failed to record artifact directory", "artifact_index_failed",
				logging.Error(err),
				logging.String("dir", dir),
				logging.String(logging.FieldImpact, "sessions show will not list the artifact directory"),
			)
		}
	}
	if !p.render {
		return nil
	}
	return Render(p.out, state.Result, RenderOptions{Color: p.color, SessionID: state.SessionID})
}

// WriteArtifacts stores the outcome in the session directory and returns it.
func (p *Presenter) WriteArtifacts(outcome pipeline.Outcome) (string, error) {
	dir := p.cfg.SessionDir(outcome.State.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}
	if result := outcome.State.Result; result != nil && len(result.Raw) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, result.Raw, "", "  "); err != nil {
			return "", fmt.Errorf("format analysis: %w", err)
		}
		pretty.WriteByte('\n')
		if err := writeFileAtomic(filepath.Join(dir, AnalysisFile), pretty.Bytes()); err != nil {
			return "", err
		}
	}
	if !p.keepArtifacts {
		return dir, nil
	}
	// Sessions started from an existing file already have the recording on disk.
	if outcome.State.SourcePath == "" && !outcome.Recording.Empty() {
		name := RecordingBase + capture.Extension(outcome.Recording.MIMEType)
		if err := writeFileAtomic(filepath.Join(dir, name), outcome.Recording.Data); err != nil {
			return "", err
		}
	}
	if len(outcome.Artifact.Data) > 0 && (outcome.Artifact.Transcoded || outcome.State.SourcePath != "") {
		if err := writeFileAtomic(filepath.Join(dir, p.uploadName), outcome.Artifact.Data); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
