package routes

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/logger"
)

// qrSettleWait gives the bridge time to produce a QR code after a session
// restart before we fetch the image.
const qrSettleWait = 5 * time.Second

// SessionAPI is the slice of the bridge API the session route needs.
type SessionAPI interface {
	SessionStatus(ctx context.Context) (bool, error)
	SessionTerminate(ctx context.Context) error
	SessionStart(ctx context.Context) error
	SessionQR(ctx context.Context) ([]byte, error)
}

// SessionRoute watches for QR events from the bridge, which signal a
// disconnected session. It restarts the session and publishes the fresh
// pairing QR code as a static HTML page an operator can open and scan.
// Checks are rate-limited by a cron schedule so a burst of QR events
// triggers at most one recovery per tick.
type SessionRoute struct {
	backend   SessionAPI
	staticDir string
	schedule  string

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewSessionRoute(backend SessionAPI, staticDir, schedule string) *SessionRoute {
	if schedule == "" {
		schedule = "* * * * *"
	}
	return &SessionRoute{
		backend:   backend,
		staticDir: staticDir,
		schedule:  schedule,
	}
}

func (r *SessionRoute) IsApplicable(ev *events.InboundEvent) (bool, error) {
	return ev.Kind == events.KindQR && ev.HasQR, nil
}

func (r *SessionRoute) Process(ctx context.Context, ev *events.InboundEvent) error {
	if !r.begin() {
		return nil
	}
	defer r.end()

	ok, err := r.backend.SessionStatus(ctx)
	if err != nil {
		logger.ErrorCF("routes", "Session status check failed", map[string]any{"error": err.Error()})
		return nil
	}
	if ok {
		return nil
	}

	logger.WarnC("routes", "Bridge session down, restarting")
	if err := r.backend.SessionTerminate(ctx); err != nil {
		logger.ErrorCF("routes", "Session terminate failed", map[string]any{"error": err.Error()})
	}
	if err := r.backend.SessionStart(ctx); err != nil {
		logger.ErrorCF("routes", "Session start failed", map[string]any{"error": err.Error()})
		return nil
	}

	select {
	case <-time.After(qrSettleWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	png, err := r.backend.SessionQR(ctx)
	if err != nil {
		logger.ErrorCF("routes", "QR fetch failed", map[string]any{"error": err.Error()})
		return nil
	}
	return r.writeResetPage(png)
}

// begin claims the single-flight slot if no recovery is running and the
// schedule says another one is due.
func (r *SessionRoute) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	if !r.lastRun.IsZero() {
		next, err := gronx.NextTickAfter(r.schedule, r.lastRun, false)
		if err != nil || time.Now().Before(next) {
			return false
		}
	}
	r.running = true
	r.lastRun = time.Now()
	return true
}

func (r *SessionRoute) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *SessionRoute) writeResetPage(png []byte) error {
	if err := os.MkdirAll(r.staticDir, 0o755); err != nil {
		return fmt.Errorf("create static dir: %w", err)
	}
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <h1>Session Reset: %s</h1>
    <img src="data:image/png;base64,%s" alt="QR Code" />
</body>
</html>
`, time.Now().Format(time.RFC3339), base64.StdEncoding.EncodeToString(png))

	path := filepath.Join(r.staticDir, "reset.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write reset page: %w", err)
	}
	logger.InfoCF("routes", "Published session reset page", map[string]any{"path": path})
	return nil
}
