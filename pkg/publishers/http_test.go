package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPPublisherSuccess(t *testing.T) {
	var received bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %s", got)
		}
		if got := r.Header.Get("X-Event-Type"); got != EventContentUpserted {
			t.Errorf("missing event type header, got %s", got)
		}
		if got := r.Header.Get("X-Run-ID"); got != "run-1" {
			t.Errorf("missing run id header, got %s", got)
		}
		var evt Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil || evt.Slug != "chip-wars" {
			t.Errorf("unexpected body %+v err=%v", evt, err)
		}
		received = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub, err := build(context.Background(), SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &WebhookConfig{
			URL:            srv.URL,
			Headers:        map[string]string{"X-Test": "1"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !received {
		t.Fatalf("server did not receive request")
	}
}

func TestHTTPPublisherErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := build(context.Background(), SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &WebhookConfig{URL: srv.URL, Method: http.MethodPut, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	err = pub.Publish(context.Background(), Event{})
	if err == nil || !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}
