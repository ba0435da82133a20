// Package router owns the set of active routes and fans inbound events out
// to them. Handlers for persisted chats are rediscovered from the state
// store on every dispatch, which makes the registry self-healing across
// restarts: any chat state ever created becomes an active route again
// without explicit re-registration.
package router

import (
	"context"
	"sync"

	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

// Route declares interest in events and acts on them.
type Route interface {
	// IsApplicable reports whether the route wants the event. A recoverable
	// error (an event missing a field this route expects) skips only this
	// route; the dispatcher logs it and keeps evaluating.
	IsApplicable(ev *events.InboundEvent) (bool, error)
	// Process handles one event. It runs as an independent concurrent task.
	Process(ctx context.Context, ev *events.InboundEvent) error
}

// ChatRoute is a Route bound to a single chat id. Registration is
// deduplicated by chat id: two ChatRoutes with the same id are the same
// route regardless of which code path constructed them.
type ChatRoute interface {
	Route
	ChatID() string
}

// Dispatcher owns the ordered route registry. Static routes are registered
// once at startup; chat handlers are rediscovered from the store before
// every dispatch.
type Dispatcher struct {
	store      *store.Store
	newHandler func(chatID string) ChatRoute

	mu     sync.Mutex
	routes []Route

	wg sync.WaitGroup
}

// NewDispatcher builds a dispatcher over the given store. newHandler
// constructs the handler for a rediscovered chat id.
func NewDispatcher(st *store.Store, newHandler func(chatID string) ChatRoute) *Dispatcher {
	return &Dispatcher{
		store:      st,
		newHandler: newHandler,
	}
}

// Register appends a route to the registry. Routes are evaluated in
// registration order. No deduplication happens here; ChatRoute identity is
// checked only by RefreshDynamicRoutes.
func (d *Dispatcher) Register(r Route) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = append(d.routes, r)
}

// RefreshDynamicRoutes enumerates every chat id known to the store and
// registers a handler for each id that has no route yet. Calling it twice
// in a row never registers a chat id's handler more than once.
func (d *Dispatcher) RefreshDynamicRoutes() error {
	ids, err := d.store.List()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	known := make(map[string]bool)
	for _, r := range d.routes {
		if cr, ok := r.(ChatRoute); ok {
			known[cr.ChatID()] = true
		}
	}
	for _, id := range ids {
		if known[id] {
			continue
		}
		d.routes = append(d.routes, d.newHandler(id))
		logger.InfoCF("router", "Rediscovered chat handler", map[string]any{"chat_id": id})
	}
	return nil
}

// Dispatch refreshes the dynamic routes, then evaluates every registered
// route in order and schedules Process for each applicable one as an
// independent task. Dispatch returns without waiting for those tasks; no
// completion order is guaranteed between routes, even for the same chat.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *events.InboundEvent) {
	if err := d.RefreshDynamicRoutes(); err != nil {
		logger.ErrorCF("router", "Route rediscovery failed", map[string]any{"error": err.Error()})
	}

	d.mu.Lock()
	snapshot := make([]Route, len(d.routes))
	copy(snapshot, d.routes)
	d.mu.Unlock()

	for _, route := range snapshot {
		applicable, err := route.IsApplicable(ev)
		if err != nil {
			logger.WarnCF("router", "Applicability check failed", map[string]any{
				"event_kind": string(ev.Kind),
				"error":      err.Error(),
			})
			continue
		}
		if !applicable {
			continue
		}

		d.wg.Add(1)
		go func(r Route) {
			defer d.wg.Done()
			if err := r.Process(ctx, ev); err != nil {
				logger.ErrorCF("router", "Route processing failed", map[string]any{
					"event_kind": string(ev.Kind),
					"chat_id":    ev.ChatID,
					"error":      err.Error(),
				})
			}
		}(route)
	}
}

// Wait blocks until all in-flight route tasks finish. Used on shutdown and
// in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
