package publishers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestHTTPPublisherDeliversEvent(t *testing.T) {
	var (
		received Event
		headers  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg, err := Prepare(PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            srv.URL,
			Method:         "put",
			Headers:        map[string]string{"X-Test": "1"},
			TimeoutSeconds: 2,
		},
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	pub, err := newHTTPPublisher(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	evt := NewEvent("scores", "https://example.com/scores", "scores", "connection_error", "1000")
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if received.ID != evt.ID || received.Result != "1000" {
		t.Fatalf("server received unexpected event %#v", received)
	}
	if headers.Get("X-Test") != "1" || headers.Get(HeaderEventKind) != "connection_error" {
		t.Fatalf("missing headers %v", headers)
	}
	if headers.Get(HeaderEventID) != evt.ID || headers.Get(HeaderTargetID) != "scores" {
		t.Fatalf("missing event routing headers %v", headers)
	}
	if !strings.HasPrefix(headers.Get("Content-Type"), "application/json") {
		t.Fatalf("unexpected content type %q", headers.Get("Content-Type"))
	}
}

func TestHTTPPublisherErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	err = pub.Publish(context.Background(), Event{ID: "evt-1"})
	if err == nil || !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected status error on non-2xx response, got %v", err)
	}
}
