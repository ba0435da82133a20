// Package gateway runs the webhook HTTP server: it accepts bridge
// deliveries on /callback, hands the parsed events to the intake queue,
// and serves health probes plus the static QR reset page.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tinyland-inc/waclaw/pkg/bus"
	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/logger"
)

// maxPayloadBytes bounds a single webhook delivery; media payloads are
// base64 inline so the limit is generous.
const maxPayloadBytes = 64 << 20

type Server struct {
	httpServer  *http.Server
	queue       *bus.EventQueue
	staticDir   string
	captureFile string
}

// NewServer builds the webhook server. captureFile, when non-empty, gets
// every raw delivery appended to it as a debugging aid.
func NewServer(host string, port int, staticDir, captureFile string, queue *bus.EventQueue) *Server {
	s := &Server{
		queue:       queue,
		staticDir:   staticDir,
		captureFile: captureFile,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleHealth)
	if staticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleCallback accepts one webhook delivery. Parsing failures are logged
// and acknowledged anyway: the bridge must never be told to retry, and a
// malformed delivery must never block the intake path.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	logger.InfoCF("gateway", "Got event", map[string]any{"preview": preview(raw, 100)})
	s.capture(raw)

	ev, err := events.Parse(raw, time.Now())
	if err != nil {
		logger.WarnCF("gateway", "Dropping malformed event", map[string]any{"error": err.Error()})
	} else if err := s.queue.Publish(r.Context(), ev); err != nil {
		logger.ErrorCF("gateway", "Event enqueue failed", map[string]any{"error": err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}\n"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// capture appends the raw delivery to the capture file, best effort.
func (s *Server) capture(raw []byte) {
	if s.captureFile == "" {
		return
	}
	f, err := os.OpenFile(s.captureFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(raw, '\n'))
}

func preview(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
