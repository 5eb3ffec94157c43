package notifications

import (
	"context"
	"log/slog"

	"interviewcoach/internal/logging"
	"interviewcoach/internal/pipeline"
)

// Observer publishes terminal session outcomes.
type Observer struct {
	service Service
	logger  *slog.Logger
}

// NewObserver wraps service as a pipeline observer.
func NewObserver(service Service, logger *slog.Logger) *Observer {
	return &Observer{service: service, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (o *Observer) Observe(ctx context.Context, state pipeline.State) {
	if o == nil || o.service == nil {
		return
	}
	var (
		event   Event
		payload Payload
	)
	switch state.Phase {
	case pipeline.PhaseDone:
		event = EventAnalysisReady
		payload = Payload{"sessionID": state.SessionID}
		if state.Result != nil {
			payload["confidence"] = state.Result.Facial.Confidence
			payload["tip"] = state.Result.Coaching.Tip
		}
	case pipeline.PhaseFailed:
		event = EventSessionFailed
		payload = Payload{"sessionID": state.SessionID, "status": state.Status}
	default:
		return
	}
	if err := o.service.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification for this session"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
