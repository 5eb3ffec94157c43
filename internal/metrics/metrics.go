package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/services"
	"interviewcoach/internal/sessions"
)

// History supplies the totals of sessions finished by earlier processes.
type History interface {
	Totals(ctx context.Context) (sessions.Totals, error)
}

// Metrics contains the Prometheus collectors for interview sessions.
type Metrics struct {
	registry *prometheus.Registry
	textfile string
	logger   *slog.Logger

	SessionsTotal  *prometheus.CounterVec
	FailuresTotal  *prometheus.CounterVec
	PhaseDuration  *prometheus.HistogramVec
	RecordingBytes prometheus.Gauge
	ArtifactBytes  prometheus.Gauge
	Transcoded     prometheus.Counter
	LastSuccess    prometheus.Gauge

	mu sync.Mutex
}

// New creates the collectors on a private registry. A non-empty textfile is
// rewritten after every finished session.
func New(textfile string, logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		textfile: textfile,
		logger:   logging.NewComponentLogger(logger, "metrics"),

		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interviewcoach_sessions_total",
			Help: "Sessions that reached a terminal phase, by outcome",
		}, []string{"outcome"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interviewcoach_failures_total",
			Help: "Failed sessions by failing phase and error kind",
		}, []string{"phase", "kind"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interviewcoach_phase_duration_seconds",
			Help:    "Time spent in each pipeline phase",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7 minutes
		}, []string{"phase"}),
		RecordingBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "interviewcoach_recording_bytes",
			Help: "Size of the most recent finalized recording",
		}),
		ArtifactBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "interviewcoach_artifact_bytes",
			Help: "Size of the most recent uploaded artifact",
		}),
		Transcoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewcoach_transcoded_total",
			Help: "Recordings that needed re-encoding before upload",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "interviewcoach_last_success_timestamp_seconds",
			Help: "Unix time of the last completed analysis",
		}),
	}
}

// NewFromConfig builds metrics for the [metrics] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Metrics {
	return New(cfg.Metrics.Textfile, logger)
}

// Seed starts the counters from the stored session history so the textfile
// keeps counting across CLI invocations. Call it once, before any session runs.
func (m *Metrics) Seed(ctx context.Context, history History) error {
	if m == nil || history == nil {
		return nil
	}
	totals, err := history.Totals(ctx)
	if err != nil {
		return fmt.Errorf("seed metrics: %w", err)
	}
	m.SessionsTotal.WithLabelValues("done").Add(float64(totals.Done))
	m.SessionsTotal.WithLabelValues("failed").Add(float64(totals.Failed))
	m.Transcoded.Add(float64(totals.Transcoded))
	for _, failure := range totals.Failures {
		m.FailuresTotal.WithLabelValues(string(failure.Phase), failure.Kind).Add(float64(failure.Count))
	}
	if !totals.LastSuccess.IsZero() {
		m.LastSuccess.Set(float64(totals.LastSuccess.Unix()))
	}
	return nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records phase timings and session outcomes.
func (m *Metrics) Observe(ctx context.Context, state pipeline.State) {
	if m == nil {
		return
	}
	if state.Previous != "" && state.PreviousDuration > 0 {
		m.PhaseDuration.WithLabelValues(string(state.Previous)).Observe(state.PreviousDuration.Seconds())
	}
	switch state.Phase {
	case pipeline.PhaseUploading:
		m.ArtifactBytes.Set(float64(state.ArtifactBytes))
		if state.Transcoded {
			m.Transcoded.Inc()
		}
	case pipeline.PhaseStopped:
		m.RecordingBytes.Set(float64(state.RecordingBytes))
	case pipeline.PhaseDone:
		m.SessionsTotal.WithLabelValues("done").Inc()
		m.LastSuccess.Set(float64(state.UpdatedAt.Unix()))
		m.flush(ctx)
	case pipeline.PhaseFailed:
		m.SessionsTotal.WithLabelValues("failed").Inc()
		m.FailuresTotal.WithLabelValues(string(state.FailedPhase), services.Kind(state.Err)).Inc()
		m.flush(ctx)
	}
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) flush(ctx context.Context) {
	if m.textfile == "" {
		return
	}
	if err := m.WriteTextfile(m.textfile); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String("path", m.textfile),
			logging.String(logging.FieldImpact, "node exporter will report stale values"),
		)
	}
}
