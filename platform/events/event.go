// Package events is the in-process publish/subscribe layer. Domain event
// types live in internal/events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is anything that can be published on a Bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Scoped is implemented by events that belong to one organization. The bus
// adds the organization to handler failure logs.
type Scoped interface {
	Organization() uuid.UUID
}

// BaseEvent is embedded by concrete events to satisfy OccurredAt.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps the event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their EventName.
type Bus interface {
	// Publish dispatches to handlers in the background and never fails.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers inline and returns their joined errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

// logAttrs returns the key/value pairs identifying event in logs.
func logAttrs(event Event) []any {
	attrs := []any{"event", event.EventName()}
	if s, ok := event.(Scoped); ok && s.Organization() != uuid.Nil {
		attrs = append(attrs, "organization_id", s.Organization().String())
	}
	return attrs
}
