package event

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerFunc processes a delivered event.
type HandlerFunc func(Event)

// subscription binds a topic pattern to a handler.
type subscription struct {
	id      uint64
	pattern string
	fn      HandlerFunc
}

// Bus delivers events synchronously to matching subscribers. Patterns
// match a topic exactly, or by prefix with a trailing ".*" (e.g.
// "session.*" matches "session.created"). Handlers must not block.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed atomic.Bool

	published atomic.Uint64
	delivered atomic.Uint64
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for a topic pattern and returns an id
// for Unsubscribe.
func (b *Bus) Subscribe(pattern string, fn HandlerFunc) uint64 {
	if fn == nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, pattern: pattern, fn: fn})
	return b.nextID
}

// Unsubscribe removes a subscription by id. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every matching subscriber in
// subscription order. Handler panics are contained per handler.
func (b *Bus) Publish(evt Event) {
	if b.closed.Load() || evt.Type == "" {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.published.Add(1)

	for _, sub := range subs {
		if !Matches(sub.pattern, evt.Type) {
			continue
		}
		b.deliver(sub.fn, evt)
	}
}

// deliver invokes one handler with panic containment.
func (b *Bus) deliver(fn HandlerFunc, evt Event) {
	defer func() {
		_ = recover()
	}()
	fn(evt)
	b.delivered.Add(1)
}

// Published returns the number of events accepted for delivery.
func (b *Bus) Published() uint64 {
	return b.published.Load()
}

// Delivered returns the number of successful handler invocations.
func (b *Bus) Delivered() uint64 {
	return b.delivered.Load()
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops delivery. Publishing on a closed bus is a no-op.
func (b *Bus) Close() {
	b.closed.Store(true)
}

// Matches reports whether a topic matches a pattern. A pattern is
// either an exact topic or a namespace prefix ending in ".*".
func Matches(pattern, topic string) bool {
	if pattern == topic || pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(topic, prefix+".")
	}
	return false
}
