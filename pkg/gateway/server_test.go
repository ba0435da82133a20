package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinyland-inc/waclaw/pkg/bus"
	"github.com/tinyland-inc/waclaw/pkg/events"
)

const messagePayload = `{
	"dataType": "message",
	"data": {
		"message": {"from": "u", "body": "hi", "id": {"id": "m", "remote": "g"}}
	}
}`

func newTestServer(t *testing.T, captureFile string) (*Server, *bus.EventQueue) {
	t.Helper()
	queue := bus.NewEventQueue()
	t.Cleanup(queue.Close)
	return NewServer("127.0.0.1", 0, "", captureFile, queue), queue
}

func postCallback(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCallback(w, req)
	return w
}

func TestCallback_EnqueuesParsedEvent(t *testing.T) {
	s, queue := newTestServer(t, "")

	w := postCallback(s, messagePayload)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if w.Body.String() != "{}\n" {
		t.Errorf("body: got %q, want ack", w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := queue.Consume(ctx)
	if !ok {
		t.Fatal("expected an event on the queue")
	}
	if ev.Kind != events.KindMessage || ev.Remote != "g" {
		t.Errorf("event: got kind=%q remote=%q", ev.Kind, ev.Remote)
	}
}

func TestCallback_MalformedPayloadStillAcked(t *testing.T) {
	s, queue := newTestServer(t, "")

	w := postCallback(s, `{"data": {}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 even for malformed payloads", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := queue.Consume(ctx); ok {
		t.Error("malformed payload must not reach the queue")
	}
}

func TestCallback_RejectsNonPost(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/callback", nil)
	w := httptest.NewRecorder()
	s.handleCallback(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", w.Code)
	}
}

func TestCallback_CaptureFileAppends(t *testing.T) {
	captureFile := filepath.Join(t.TempDir(), "capture.jsonl")
	s, _ := newTestServer(t, captureFile)

	postCallback(s, `{"dataType": "qr", "data": {"qr": "a"}}`)
	postCallback(s, `{"dataType": "qr", "data": {"qr": "b"}}`)

	data, err := os.ReadFile(captureFile)
	if err != nil {
		t.Fatalf("reading capture file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("capture lines: got %d, want 2", len(lines))
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.httpServer.Handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "ok") {
			t.Errorf("%s body: got %q", path, w.Body.String())
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview([]byte("short"), 100); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("x", 150)
	got := preview([]byte(long), 100)
	if len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Errorf("got %d bytes: %q", len(got), got)
	}
}
