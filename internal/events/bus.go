package events

import (
	platformevents "leadscore_backend/platform/events"
	"leadscore_backend/platform/logger"
)

// Bus types are aliased so modules only import this package.
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
	InMemoryBus = platformevents.InMemoryBus
)

var (
	_ platformevents.Scoped = LeadQualified{}
	_ platformevents.Scoped = OutcomeRecorded{}
	_ platformevents.Scoped = ModelPublished{}
	_ platformevents.Scoped = ModelRejected{}
	_ platformevents.Scoped = ModelActivated{}
)

// NewBaseEvent stamps a domain event with the current time.
func NewBaseEvent() BaseEvent { return platformevents.NewBaseEvent() }

// NewInMemoryBus returns the process-local bus used by both binaries.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
