package routes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSessionAPI struct {
	mu         sync.Mutex
	statusOK   bool
	statusErr  error
	terminates int
	starts     int
	qr         []byte
	qrErr      error
}

func (f *fakeSessionAPI) SessionStatus(context.Context) (bool, error) {
	return f.statusOK, f.statusErr
}

func (f *fakeSessionAPI) SessionTerminate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminates++
	return nil
}

func (f *fakeSessionAPI) SessionStart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeSessionAPI) SessionQR(context.Context) ([]byte, error) {
	return f.qr, f.qrErr
}

func qrEvent(t *testing.T) string {
	return `{"dataType": "qr", "data": {"qr": "2@pairing-data"}}`
}

func TestSessionRoute_IsApplicable(t *testing.T) {
	r := NewSessionRoute(nil, "", "")

	ok, err := r.IsApplicable(parseEvent(t, qrEvent(t)))
	if err != nil || !ok {
		t.Errorf("qr event: got (%v, %v), want (true, nil)", ok, err)
	}

	ok, _ = r.IsApplicable(parseEvent(t, `{
		"dataType": "message",
		"data": {"message": {"body": "x", "id": {"remote": "g"}}}
	}`))
	if ok {
		t.Error("message event must not match")
	}
}

func TestSessionRoute_HealthySessionNoRestart(t *testing.T) {
	api := &fakeSessionAPI{statusOK: true}
	r := NewSessionRoute(api, t.TempDir(), "")

	if err := r.Process(context.Background(), parseEvent(t, qrEvent(t))); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if api.terminates != 0 || api.starts != 0 {
		t.Errorf("healthy session restarted: terminates=%d starts=%d", api.terminates, api.starts)
	}
}

func TestSessionRoute_StatusErrorIsSwallowed(t *testing.T) {
	api := &fakeSessionAPI{statusErr: errors.New("bridge unreachable")}
	r := NewSessionRoute(api, t.TempDir(), "")

	if err := r.Process(context.Background(), parseEvent(t, qrEvent(t))); err != nil {
		t.Fatalf("Process must not surface status errors, got: %v", err)
	}
	if api.terminates != 0 {
		t.Error("no restart should happen when status is unknown")
	}
}

func TestSessionRoute_RestartHonorsCancellation(t *testing.T) {
	api := &fakeSessionAPI{statusOK: false}
	r := NewSessionRoute(api, t.TempDir(), "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Process(ctx, parseEvent(t, qrEvent(t)))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error during settle wait, got %v", err)
	}
	if api.terminates != 1 || api.starts != 1 {
		t.Errorf("restart sequence: terminates=%d starts=%d, want 1/1", api.terminates, api.starts)
	}
}

func TestSessionRoute_RateLimited(t *testing.T) {
	api := &fakeSessionAPI{statusOK: true}
	r := NewSessionRoute(api, t.TempDir(), "* * * * *")

	if err := r.Process(context.Background(), parseEvent(t, qrEvent(t))); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if !r.begin() {
		// A second event inside the same schedule tick is dropped.
		return
	}
	t.Error("expected second run to be rate limited within the same minute")
}

func TestSessionRoute_WritesResetPage(t *testing.T) {
	staticDir := t.TempDir()
	r := NewSessionRoute(&fakeSessionAPI{}, staticDir, "")

	if err := r.writeResetPage([]byte("png-bytes")); err != nil {
		t.Fatalf("writeResetPage: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(staticDir, "reset.html"))
	if err != nil {
		t.Fatalf("reading reset page: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "data:image/png;base64,cG5nLWJ5dGVz") {
		t.Errorf("reset page missing embedded QR image:\n%s", html)
	}
	if !strings.Contains(html, "Session Reset:") {
		t.Errorf("reset page missing title:\n%s", html)
	}
}
