package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tinyland-inc/waclaw/pkg/events"
)

func TestPublishConsume(t *testing.T) {
	q := NewEventQueue()
	defer q.Close()

	ev := &events.InboundEvent{Kind: events.KindMessage, ChatID: "c"}
	if err := q.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, ok := q.Consume(context.Background())
	if !ok {
		t.Fatal("expected an event")
	}
	if got != ev {
		t.Errorf("got %+v, want the published event", got)
	}
}

func TestPublish_Order(t *testing.T) {
	q := NewEventQueue()
	defer q.Close()

	for i := 0; i < 5; i++ {
		ev := &events.InboundEvent{MessageID: string(rune('a' + i))}
		if err := q.Publish(context.Background(), ev); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		ev, ok := q.Consume(context.Background())
		if !ok {
			t.Fatal("queue drained early")
		}
		if ev.MessageID != string(rune('a'+i)) {
			t.Errorf("event %d: got %q", i, ev.MessageID)
		}
	}
}

func TestPublish_AfterClose(t *testing.T) {
	q := NewEventQueue()
	q.Close()

	err := q.Publish(context.Background(), &events.InboundEvent{})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestConsume_UnblocksOnClose(t *testing.T) {
	q := NewEventQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Consume(context.Background()); ok {
			t.Error("expected no event after close")
		}
	}()

	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not unblock on close")
	}
}

func TestConsume_UnblocksOnContextCancel(t *testing.T) {
	q := NewEventQueue()
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.Consume(ctx); ok {
		t.Error("expected no event with cancelled context")
	}
}

func TestClose_Idempotent(t *testing.T) {
	q := NewEventQueue()
	q.Close()
	q.Close()
}
