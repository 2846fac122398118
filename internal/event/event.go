// Package event provides a compact topic-based event bus for session
// and configuration lifecycle notifications.
package event

import "time"

// Event is one published notification.
type Event struct {
	// Type is the dotted topic (e.g. "session.created").
	Type string

	// Data carries event-specific payload.
	Data map[string]any

	// Time is when the event was published.
	Time time.Time

	// Source identifies the publishing component.
	Source string
}

// New creates an event with the current time.
func New(eventType string, data map[string]any) Event {
	return Event{
		Type: eventType,
		Data: data,
		Time: time.Now(),
	}
}
