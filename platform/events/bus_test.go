package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"leadscore_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestInMemoryBus_PublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls int32

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		panic("handler exploded")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestInMemoryBus_PublishAsync(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}))
	}
	bus.Subscribe("other", HandlerFunc(func(context.Context, Event) error {
		t.Errorf("unrelated handler invoked")
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	cancel()
	bus.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 handler calls, got %d", got)
	}
}

type orgEvent struct {
	BaseEvent
	org uuid.UUID
}

func (orgEvent) EventName() string         { return "test.org" }
func (e orgEvent) Organization() uuid.UUID { return e.org }

func TestLogAttrs(t *testing.T) {
	org := uuid.New()
	got := logAttrs(orgEvent{BaseEvent: NewBaseEvent(), org: org})
	if len(got) != 4 || got[1] != "test.org" || got[3] != org.String() {
		t.Fatalf("unexpected attrs %v", got)
	}

	if got := logAttrs(pingEvent{BaseEvent: NewBaseEvent()}); len(got) != 2 {
		t.Fatalf("unscoped event should only carry its name, got %v", got)
	}
	if got := logAttrs(orgEvent{BaseEvent: NewBaseEvent()}); len(got) != 2 {
		t.Fatalf("nil organization should be omitted, got %v", got)
	}
}
