package transcode

import (
	"context"
	"log/slog"
	"time"

	"interviewcoach/internal/capture"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/recorder"
	"interviewcoach/internal/services"
)

// DeliveryMIMEType is the format produced by the re-encode step.
const DeliveryMIMEType = "video/mp4"

// Artifact is the single upload-ready blob of a session.
type Artifact struct {
	Data     []byte
	MIMEType string
	// Transcoded is false when the recording was passed through unchanged.
	Transcoded bool
}

// Normalizer turns a FinalizedRecording into a delivery Artifact.
type Normalizer struct {
	canonical map[string]struct{}
	engine    *LazyEngine
	logger    *slog.Logger
}

// NewNormalizer builds a normalizer. canonical lists MIME types that are
// uploaded as-is; parameters such as codecs are ignored when matching.
func NewNormalizer(canonical []string, engine *LazyEngine, logger *slog.Logger) *Normalizer {
	set := make(map[string]struct{}, len(canonical))
	for _, mime := range canonical {
		if base := capture.BaseType(mime); base != "" {
			set[base] = struct{}{}
		}
	}
	return &Normalizer{canonical: set, engine: engine, logger: logging.NewComponentLogger(logger, "transcode")}
}

// IsCanonical reports whether mimeType is uploaded without re-encoding.
func (n *Normalizer) IsCanonical(mimeType string) bool {
	_, ok := n.canonical[capture.BaseType(mimeType)]
	return ok
}

// EngineLoaded reports whether the transcoding engine is already loaded.
func (n *Normalizer) EngineLoaded() bool {
	return n.engine != nil && n.engine.Loaded()
}

// Prepare loads the transcoding engine if it is not loaded yet.
func (n *Normalizer) Prepare(ctx context.Context) error {
	_, err := n.load(ctx)
	return err
}

func (n *Normalizer) load(ctx context.Context) (Engine, error) {
	if n.engine == nil {
		return nil, services.Wrap(services.ErrTranscode, "converting", "load engine", "no transcoding engine configured", nil)
	}
	loadStart := time.Now()
	wasLoaded := n.engine.Loaded()
	engine, err := n.engine.Get(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscode, "converting", "load engine", "", err)
	}
	if !wasLoaded {
		logging.WithContext(ctx, n.logger).Info("transcoding engine loaded", logging.Duration("elapsed", time.Since(loadStart)))
	}
	return engine, nil
}

// Normalize returns recording unchanged when its format is canonical and
// otherwise re-encodes it. Failures wrap services.ErrTranscode.
func (n *Normalizer) Normalize(ctx context.Context, recording recorder.FinalizedRecording) (Artifact, error) {
	logger := logging.WithContext(ctx, n.logger)
	if n.IsCanonical(recording.MIMEType) {
		logger.Info("recording already in delivery format",
			logging.String("mime_type", recording.MIMEType),
			logging.Int("bytes", len(recording.Data)),
		)
		return Artifact{Data: recording.Data, MIMEType: recording.MIMEType}, nil
	}
	engine, err := n.load(ctx)
	if err != nil {
		return Artifact{}, err
	}

	start := time.Now()
	inputName := "input" + capture.Extension(recording.MIMEType)
	output, err := engine.Transcode(ctx, recording.Data, inputName)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrTranscode, "converting", "re-encode", recording.MIMEType, err)
	}
	if len(output) == 0 {
		return Artifact{}, services.Wrap(services.ErrTranscode, "converting", "re-encode", "engine produced no output", nil)
	}
	logger.Info("recording transcoded",
		logging.String("from", recording.MIMEType),
		logging.String("to", DeliveryMIMEType),
		logging.Int("input_bytes", len(recording.Data)),
		logging.Int("output_bytes", len(output)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Artifact{Data: output, MIMEType: DeliveryMIMEType, Transcoded: true}, nil
}
