package sessions

import (
	"context"
	"log/slog"

	"interviewcoach/internal/logging"
	"interviewcoach/internal/pipeline"
)

// Observer persists every controller state change.
type Observer struct {
	store  *Store
	logger *slog.Logger
}

// NewObserver returns a pipeline observer writing to store.
func NewObserver(store *Store, logger *slog.Logger) *Observer {
	return &Observer{store: store, logger: logging.NewComponentLogger(logger, "sessions")}
}

// Observe saves state. Persistence failures are logged and never interrupt
// the session.
func (o *Observer) Observe(ctx context.Context, state pipeline.State) {
	if o == nil || o.store == nil || state.SessionID == "" {
		return
	}
	// The session must be recorded even when the caller's context is already
	// cancelled, e.g. a failure caused by Ctrl+C.
	if err := o.store.Save(context.WithoutCancel(ctx), RecordFromState(state)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "failed to persist session state", "session_persist_failed",
			logging.Error(err),
			logging.String("phase", string(state.Phase)),
			logging.String(logging.FieldImpact, "session history may be incomplete"),
			logging.String(logging.FieldErrorHint, "check permissions on "+o.store.Path()),
		)
	}
}
