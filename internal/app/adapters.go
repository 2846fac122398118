package app

import (
	"github.com/dshills/replstorm/internal/event"
)

// busPublisher adapts the event bus to the registry's publisher role.
type busPublisher struct {
	bus    *event.Bus
	source string
}

// Publish implements session.EventPublisher.
func (p busPublisher) Publish(eventType string, data map[string]any) {
	evt := event.New(eventType, data)
	evt.Source = p.source
	p.bus.Publish(evt)
}
