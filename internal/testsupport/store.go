package testsupport

import (
	"context"
	"testing"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/sessions"
)

// MustOpenStore opens a sessions.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessions.Store {
	t.Helper()

	store, err := sessions.Open(cfg)
	if err != nil {
		t.Fatalf("sessions.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveSession writes a session row in the given phase for tests.
func SaveSession(t testing.TB, store *sessions.Store, id string, phase pipeline.Phase, started time.Time) sessions.Record {
	t.Helper()

	rec := sessions.Record{
		ID:        id,
		Origin:    pipeline.OriginCapture,
		Phase:     phase,
		Status:    string(phase),
		MIMEType:  "video/webm",
		StartedAt: started,
		UpdatedAt: started.Add(time.Second),
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return rec
}
