package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/replstorm/internal/filter"
)

// DefaultName is the session name used when none is specified.
const DefaultName = "main"

// EventPublisher publishes session lifecycle events.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

// RegistryConfig configures a session registry.
type RegistryConfig struct {
	// DefaultName resolves an empty session name (default "main").
	DefaultName string

	// Command is the REPL command for new sessions.
	Command string

	// Args are arguments for the REPL command.
	Args []string

	// Env are additional environment variables.
	Env []string

	// Term is the TERM value for new sessions.
	Term string

	// Cols and Rows are the pty dimensions.
	Cols int
	Rows int

	// WindowBytes bounds each session's trailing output window.
	WindowBytes int

	// Scrollback is the per-session scrollback line count.
	Scrollback int

	// KillGrace is the per-session grace window before SIGKILL.
	KillGrace time.Duration

	// Filters is the registration list snapshotted per session at
	// creation time.
	Filters *filter.List

	// EventBus receives session.created/closed/restarted events.
	EventBus EventPublisher

	// OnOutput receives each session's filtered output.
	OnOutput func(name, text string)
}

// Registry maps session names to live sessions. Creation, resolution
// and termination are atomic per name: concurrent resolution of the
// same name spawns at most one process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string

	cfg    RegistryConfig
	closed atomic.Bool
}

// NewRegistry creates a session registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.DefaultName == "" {
		cfg.DefaultName = DefaultName
	}
	if cfg.Filters == nil {
		cfg.Filters = filter.NewList()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// DefaultSessionName returns the configured default session name.
func (r *Registry) DefaultSessionName() string {
	return r.cfg.DefaultName
}

// resolveName applies the default name to an empty name.
func (r *Registry) resolveName(name string) string {
	if name == "" {
		return r.cfg.DefaultName
	}
	return name
}

// ResolveOrCreate returns the live session for name, creating one if
// none exists or the existing one is dead. With restart, any existing
// live session is terminated and replaced. A spawn failure leaves the
// table unchanged.
func (r *Registry) ResolveOrCreate(name string, restart bool) (*Session, error) {
	name = r.resolveName(name)

	r.mu.Lock()

	// Checked under the lock: a resolver that raced Shutdown for the
	// mutex must not insert into the drained table.
	if r.closed.Load() {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}

	var restarted map[string]any
	existing := r.sessions[name]
	if existing != nil {
		if existing.IsAlive() && !restart {
			r.mu.Unlock()
			return existing, nil
		}
		// Dead, or live but being restarted. Drop the entry before
		// closing so late output has nowhere to land.
		r.remove(name)
		wasAlive := existing.IsAlive()
		go existing.Close()
		if restart && wasAlive {
			restarted = map[string]any{
				"name":       name,
				"previousId": existing.ID(),
			}
		}
	}

	sess, err := r.spawnLocked(name)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	r.sessions[name] = sess
	r.order = append(r.order, name)
	r.mu.Unlock()

	// Published outside the lock so subscribers may call back into the
	// registry, matching onSessionClosed.
	r.publish("session.created", map[string]any{
		"id":   sess.ID(),
		"name": name,
	})
	if restarted != nil {
		r.publish("session.restarted", restarted)
	}

	return sess, nil
}

// spawnLocked creates a session for name. Caller holds r.mu; spawning
// under the lock is what serializes same-name creation races.
func (r *Registry) spawnLocked(name string) (*Session, error) {
	var sess *Session
	var onOutput func(string)
	if r.cfg.OnOutput != nil {
		out := r.cfg.OnOutput
		onOutput = func(text string) { out(name, text) }
	}

	created, err := New(Options{
		Name:        name,
		Command:     r.cfg.Command,
		Args:        r.cfg.Args,
		Env:         r.cfg.Env,
		Term:        r.cfg.Term,
		Cols:        r.cfg.Cols,
		Rows:        r.cfg.Rows,
		WindowBytes: r.cfg.WindowBytes,
		Scrollback:  r.cfg.Scrollback,
		KillGrace:   r.cfg.KillGrace,
		Filters:     r.cfg.Filters.Snapshot(),
		OnOutput:    onOutput,
		OnClose: func() {
			r.onSessionClosed(name, &sess)
		},
	})
	if err != nil {
		return nil, err
	}
	sess = created
	return created, nil
}

// onSessionClosed evicts a session when its process ends. Pointer
// identity guards against a replaced session's late close evicting its
// successor. The pointer is read under the registry lock, which also
// orders this callback after the creating resolve call completes.
func (r *Registry) onSessionClosed(name string, sess **Session) {
	r.mu.Lock()
	closing := *sess
	if closing == nil {
		r.mu.Unlock()
		return
	}
	if r.sessions[name] == closing {
		r.remove(name)
	}
	r.mu.Unlock()

	r.publish("session.closed", map[string]any{
		"id":       closing.ID(),
		"name":     name,
		"exitCode": closing.ExitCode(),
	})
}

// UpdateSpawnConfig replaces the spawn settings used for sessions
// created from now on. Existing sessions keep their creation-time
// settings. The default name, filter list, event bus, and output
// callback are fixed at construction and are not replaced.
func (r *Registry) UpdateSpawnConfig(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Command = cfg.Command
	r.cfg.Args = cfg.Args
	r.cfg.Env = cfg.Env
	r.cfg.Term = cfg.Term
	r.cfg.Cols = cfg.Cols
	r.cfg.Rows = cfg.Rows
	r.cfg.WindowBytes = cfg.WindowBytes
	r.cfg.Scrollback = cfg.Scrollback
	r.cfg.KillGrace = cfg.KillGrace
}

// Get returns the registered session for name without creating one.
func (r *Registry) Get(name string) (*Session, bool) {
	name = r.resolveName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[name]
	return sess, ok
}

// Names returns registered session names in creation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if _, ok := r.sessions[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Terminate ends the named session. Terminating a nonexistent or
// already-dead session is a no-op.
func (r *Registry) Terminate(name string) {
	name = r.resolveName(name)

	r.mu.Lock()
	sess, ok := r.sessions[name]
	if ok {
		r.remove(name)
	}
	r.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// remove drops a name from the table and order list. Caller holds r.mu.
func (r *Registry) remove(name string) {
	delete(r.sessions, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Shutdown closes all sessions, force-killing any that outlive the
// timeout. Further registry operations fail with ErrRegistryClosed.
func (r *Registry) Shutdown(timeout time.Duration) {
	if r.closed.Swap(true) {
		return
	}

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.sessions = make(map[string]*Session)
	r.order = nil
	r.mu.Unlock()

	if len(sessions) == 0 {
		return
	}

	for _, sess := range sessions {
		go sess.Close()
	}

	done := make(chan struct{})
	go func() {
		for _, sess := range sessions {
			<-sess.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, sess := range sessions {
			if sess.cmd != nil && sess.cmd.Process != nil {
				sess.cmd.Process.Kill()
			}
		}
	}
}

// publish publishes an event if an event bus is configured.
func (r *Registry) publish(eventType string, data map[string]any) {
	if r.cfg.EventBus != nil {
		if data == nil {
			data = make(map[string]any)
		}
		data["timestamp"] = time.Now().UnixMilli()
		r.cfg.EventBus.Publish(eventType, data)
	}
}
