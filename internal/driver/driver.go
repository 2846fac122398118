// Package driver tracks which session is "current" for each editing
// endpoint and resolves it without re-specifying a name each call.
package driver

import (
	"sync"

	"github.com/dshills/replstorm/internal/session"
)

// Resolver resolves session names to live sessions, creating them on
// demand. *session.Registry satisfies it.
type Resolver interface {
	ResolveOrCreate(name string, restart bool) (*session.Session, error)
}

// Driver is one editing endpoint's pairing state. It is unbound until
// the endpoint pins a name or switches; a cached live session is reused
// directly, and a dead cached session falls back to the bound name,
// then the default.
type Driver struct {
	id string

	mu     sync.Mutex
	bound  string
	cached *session.Session
}

// New creates a driver for the given endpoint id.
func New(id string) *Driver {
	return &Driver{id: id}
}

// ID returns the endpoint identity.
func (d *Driver) ID() string {
	return d.id
}

// BoundName returns the explicitly pinned session name, if any.
func (d *Driver) BoundName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound
}

// Resolve returns the driver's current session. A live cached session
// is returned directly; otherwise resolution goes through the bound
// name (or the default when unbound), creating the session if needed,
// and refreshes the cache.
func (d *Driver) Resolve(r Resolver) (*session.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil && d.cached.IsAlive() {
		return d.cached, nil
	}
	d.cached = nil

	sess, err := r.ResolveOrCreate(d.bound, false)
	if err != nil {
		return nil, err
	}
	d.cached = sess
	return sess, nil
}

// Restart replaces the driver's current session with a fresh process,
// even if the prior one is alive.
func (d *Driver) Restart(r Resolver) (*session.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := d.bound
	if d.cached != nil {
		name = d.cached.Name()
	}
	d.cached = nil

	sess, err := r.ResolveOrCreate(name, true)
	if err != nil {
		return nil, err
	}
	d.cached = sess
	return sess, nil
}

// Switch pins the driver to name, creating the session if needed, and
// records this driver on the target session. Last switch wins the
// session's back-reference.
func (d *Driver) Switch(r Resolver, name string) (*session.Session, error) {
	sess, err := r.ResolveOrCreate(name, false)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.bound = sess.Name()
	d.cached = sess
	d.mu.Unlock()

	sess.SetDriver(d.id)
	return sess, nil
}

// Set is the collection of drivers, keyed by endpoint id.
type Set struct {
	mu      sync.Mutex
	drivers map[string]*Driver
}

// NewSet creates an empty driver set.
func NewSet() *Set {
	return &Set{drivers: make(map[string]*Driver)}
}

// Get returns the driver for id, creating it on first use.
func (s *Set) Get(id string) *Driver {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		d = New(id)
		s.drivers[id] = d
	}
	return d
}

// Lookup returns the driver for id if it exists.
func (s *Set) Lookup(id string) (*Driver, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	return d, ok
}

// Count returns the number of tracked drivers.
func (s *Set) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drivers)
}
