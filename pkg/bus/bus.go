// Package bus provides the serial intake queue between the webhook server
// and the dispatcher. The HTTP handler publishes and returns immediately;
// a single consumer drains the queue so events enter dispatch one at a
// time, while the per-route work dispatch triggers runs concurrently.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tinyland-inc/waclaw/pkg/events"
)

// ErrQueueClosed is returned when publishing to a closed EventQueue.
var ErrQueueClosed = errors.New("event queue closed")

type EventQueue struct {
	inbound chan *events.InboundEvent
	done    chan struct{}
	closed  atomic.Bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		inbound: make(chan *events.InboundEvent, 100),
		done:    make(chan struct{}),
	}
}

func (q *EventQueue) Publish(ctx context.Context, ev *events.InboundEvent) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.inbound <- ev:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *EventQueue) Consume(ctx context.Context) (*events.InboundEvent, bool) {
	select {
	case ev, ok := <-q.inbound:
		return ev, ok
	case <-q.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (q *EventQueue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.done)
	}
}
