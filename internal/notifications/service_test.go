package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"interviewcoach/internal/analysis"
	"interviewcoach/internal/config"
	"interviewcoach/internal/notifications"
	"interviewcoach/internal/pipeline"
)

type capturedNotification struct {
	title    string
	tags     string
	priority string
	body     string
}

func ntfyServer(t *testing.T) (*httptest.Server, *[]capturedNotification) {
	t.Helper()
	var (
		mu       sync.Mutex
		captured []capturedNotification
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedNotification{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventAnalysisReady, notifications.Payload{"sessionID": "x"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "analysis ready",
			event: notifications.EventAnalysisReady,
			payload: notifications.Payload{
				"sessionID":  "0f7c1a52-6f7e-4b83",
				"confidence": 0.725,
				"tip":        "Slow down.",
			},
			expectTitle:    "Interview Coach - Analysis Ready",
			expectMessage:  "✅ Interview analysis ready (session 0f7c1a52)\nConfidence: 72.5%\nTip: Slow down.",
			expectTags:     "interviewcoach,analysis,completed",
			expectPriority: "high",
		},
		{
			name:           "session failed",
			event:          notifications.EventSessionFailed,
			payload:        notifications.Payload{"status": "Conversion/Upload error: upload failed: 500 server error"},
			expectTitle:    "Interview Coach - Session Failed",
			expectMessage:  "❌ Conversion/Upload error: upload failed: 500 server error",
			expectTags:     "interviewcoach,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Interview Coach - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "interviewcoach,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := ntfyServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if len(*captured) != 1 {
				t.Fatalf("expected one notification, got %d", len(*captured))
			}
			got := (*captured)[0]
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Analysis = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{notifications.EventAnalysisReady, notifications.EventSessionFailed, notifications.EventSessionStarted} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"status": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

type recordingService struct {
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (s *recordingService) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return s.err
}

func TestObserverPublishesTerminalPhasesOnly(t *testing.T) {
	svc := &recordingService{}
	observer := notifications.NewObserver(svc, nil)
	result, err := analysis.Parse([]byte(`{"facial_analysis":{"confidence":0.4},"transcript_analysis":{},"coaching_advice":{"tip":"Breathe."}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, phase := range []pipeline.Phase{pipeline.PhaseIdle, pipeline.PhaseCapturing, pipeline.PhaseUploading} {
		observer.Observe(context.Background(), pipeline.State{SessionID: "s", Phase: phase})
	}
	observer.Observe(context.Background(), pipeline.State{SessionID: "s", Phase: pipeline.PhaseDone, Result: result})
	observer.Observe(context.Background(), pipeline.State{SessionID: "s", Phase: pipeline.PhaseFailed, Status: "Error: boom"})

	if len(svc.events) != 2 || svc.events[0] != notifications.EventAnalysisReady || svc.events[1] != notifications.EventSessionFailed {
		t.Fatalf("unexpected events %v", svc.events)
	}
	if svc.payloads[0]["tip"] != "Breathe." || svc.payloads[1]["status"] != "Error: boom" {
		t.Fatalf("unexpected payloads %v", svc.payloads)
	}

	svc.err = errors.New("offline")
	observer.Observe(context.Background(), pipeline.State{SessionID: "s", Phase: pipeline.PhaseFailed})
}
