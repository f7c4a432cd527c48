package events

import (
	platformevents "cog_mailing_sync/platform/events"
	"cog_mailing_sync/platform/logger"
)

// InMemoryBus is the bus every binary in this repo runs with.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
