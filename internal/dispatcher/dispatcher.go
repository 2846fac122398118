package dispatcher

import (
	"runtime"
	"sync"

	"github.com/dshills/replstorm/internal/dispatcher/execctx"
	"github.com/dshills/replstorm/internal/dispatcher/handler"
)

// Config configures a dispatcher.
type Config struct {
	// RecoverFromPanic wraps handler execution in panic recovery.
	// A panicking handler yields an error result, never a crash.
	RecoverFromPanic bool
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{RecoverFromPanic: true}
}

// Dispatcher routes actions to handlers and coordinates execution.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	router   *Router

	// Defaults applied when a dispatch carries no explicit context.
	display  execctx.Display
	driverID string

	config Config
}

// New creates a new dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	return &Dispatcher{
		registry: NewRegistry(),
		router:   NewRouter(),
		config:   config,
	}
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetDisplay sets the default display surface for built contexts.
func (d *Dispatcher) SetDisplay(display execctx.Display) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.display = display
}

// SetDefaultDriverID sets the endpoint identity used when a dispatch
// carries no explicit context.
func (d *Dispatcher) SetDefaultDriverID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.driverID = id
}

// Dispatch executes an action with a context built from the
// dispatcher's defaults.
func (d *Dispatcher) Dispatch(action handler.Action) handler.Result {
	return d.DispatchWithContext(action, d.buildContext())
}

// DispatchWithContext executes an action with an explicit context.
func (d *Dispatcher) DispatchWithContext(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	if ctx == nil {
		ctx = d.buildContext()
	}

	h := d.router.Route(action.Name)
	if h == nil {
		h = d.registry.Get(action.Name)
	}
	if h == nil {
		return handler.Errorf("no handler for action: %s", action.Name)
	}

	if d.config.RecoverFromPanic {
		return d.executeWithRecovery(h, action, ctx)
	}
	return h.Handle(action, ctx)
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(h handler.Handler, action handler.Action, ctx *execctx.ExecutionContext) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			result = handler.Errorf("handler panic for %s: %v\n%s", action.Name, r, string(stack[:n]))
		}
	}()

	return h.Handle(action, ctx)
}

// buildContext builds an execution context from dispatcher defaults.
func (d *Dispatcher) buildContext() *execctx.ExecutionContext {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return execctx.New().WithDisplay(d.display).WithDriverID(d.driverID)
}

// RegisterHandler registers a handler for an exact action name.
func (d *Dispatcher) RegisterHandler(actionName string, h handler.Handler) {
	d.registry.Register(actionName, h)
}

// RegisterHandlerFunc registers a handler function for an action name.
func (d *Dispatcher) RegisterHandlerFunc(actionName string, fn handler.HandlerFunc) {
	d.registry.Register(actionName, fn)
}

// RegisterNamespace registers a namespace handler.
func (d *Dispatcher) RegisterNamespace(h handler.NamespaceHandler) {
	d.router.RegisterNamespace(h.Namespace(), h)
}

// UnregisterHandler removes the handler for an action name.
func (d *Dispatcher) UnregisterHandler(actionName string) {
	d.registry.Unregister(actionName)
}

// CanDispatch reports whether any handler accepts the action.
func (d *Dispatcher) CanDispatch(actionName string) bool {
	return d.router.CanRoute(actionName) || d.registry.Has(actionName)
}

// Registry returns the exact-name handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Router returns the namespace router.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
