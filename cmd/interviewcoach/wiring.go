package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/metrics"
	"interviewcoach/internal/notifications"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/report"
	"interviewcoach/internal/sessions"
	"interviewcoach/internal/transcode"
	"interviewcoach/internal/upload"
)

type pipelineOptions struct {
	withCapture   bool
	render        bool
	keepArtifacts bool
	out           io.Writer
	statusOut     io.Writer
}

// buildController wires the capture host, normalizer, uploader, presenter,
// and observers for one CLI invocation.
func buildController(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *sessions.Store, opts pipelineOptions) (*pipeline.Controller, error) {
	var source *capture.Source
	if opts.withCapture {
		host := capture.NewFFmpegHost(capture.FFmpegOptionsFromConfig(cfg), logger)
		source = capture.NewSource(host, logger)
	}

	engine := transcode.NewLazyEngine(transcode.FFmpegLoader(transcode.FFmpegOptionsFromConfig(cfg), logger))
	normalizer := transcode.NewNormalizer(cfg.Transcode.CanonicalFormats, engine, logger)

	presenter := report.NewPresenter(cfg,
		report.WithOutput(opts.out),
		report.WithRender(opts.render),
		report.WithKeepArtifacts(opts.keepArtifacts),
		report.WithArtifactIndex(store),
		report.WithLogger(logger),
	)

	sessionMetrics := metrics.NewFromConfig(cfg, logger)
	if err := sessionMetrics.Seed(ctx, store); err != nil {
		logging.WarnWithContext(logger, "metrics not seeded from history", "metrics_seed_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session counters restart from zero"),
		)
	}

	observers := []pipeline.Observer{
		sessions.NewObserver(store, logger),
		notifications.NewObserver(notifications.NewService(cfg), logger),
		sessionMetrics,
	}
	if opts.statusOut != nil {
		observers = append(observers, statusPrinter(opts.statusOut))
	}

	controller, err := pipeline.New(pipeline.Options{
		Source:      source,
		Preferences: cfg.Capture.PreferredFormats,
		Normalizer:  normalizer,
		Uploader:    upload.NewClientFromConfig(cfg, logger),
		Filename:    cfg.Analysis.Filename,
		Presenter:   presenter,
		Observers:   observers,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return controller, nil
}

// statusPrinter echoes each new status message, the terminal equivalent of
// the status line under the record button.
func statusPrinter(w io.Writer) pipeline.Observer {
	colorize := shouldColorize(w)
	last := ""
	return pipeline.ObserverFunc(func(_ context.Context, state pipeline.State) {
		if state.Status == "" || state.Status == last {
			return
		}
		last = state.Status
		fmt.Fprintln(w, renderStatusLine(phaseLabel(state.Phase), phaseStatusKind(state.Phase), state.Status, colorize))
	})
}

func phaseStatusKind(phase pipeline.Phase) statusKind {
	switch phase {
	case pipeline.PhaseDone:
		return statusOK
	case pipeline.PhaseFailed:
		return statusError
	default:
		return statusInfo
	}
}

// recoverInterrupted fails sessions a previous process left mid-pipeline.
func recoverInterrupted(ctx context.Context, store *sessions.Store, logger *slog.Logger) {
	changed, err := store.FailInterrupted(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "failed to mark interrupted sessions", "interrupted_recovery_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale sessions keep their last working phase"),
		)
		return
	}
	if changed > 0 {
		logger.Info("marked interrupted sessions as failed", logging.Int64("count", changed))
	}
}
