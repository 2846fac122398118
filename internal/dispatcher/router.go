package dispatcher

import (
	"strings"
	"sync"

	"github.com/dshills/replstorm/internal/dispatcher/handler"
)

// Router routes actions to handlers by namespace prefix, giving O(1)
// lookup for namespaced actions like "repl.sendLine".
type Router struct {
	mu         sync.RWMutex
	namespaces map[string]handler.NamespaceHandler
	fallback   handler.Handler
}

// NewRouter creates a new action router.
func NewRouter() *Router {
	return &Router{
		namespaces: make(map[string]handler.NamespaceHandler),
	}
}

// RegisterNamespace registers a handler for all actions in a namespace.
func (r *Router) RegisterNamespace(namespace string, h handler.NamespaceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaces[namespace] = h
}

// UnregisterNamespace removes a namespace handler.
func (r *Router) UnregisterNamespace(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.namespaces, namespace)
}

// SetFallback sets the fallback handler for unmatched actions.
func (r *Router) SetFallback(h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Route finds the handler for an action, or nil.
func (r *Router) Route(actionName string) handler.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if namespace := extractNamespace(actionName); namespace != "" {
		if h, ok := r.namespaces[namespace]; ok {
			if h.CanHandle(actionName) {
				return handler.NewNamespaceAdapter(h)
			}
		}
	}
	return r.fallback
}

// CanRoute returns true if the router can handle the action.
func (r *Router) CanRoute(actionName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if namespace := extractNamespace(actionName); namespace != "" {
		if h, ok := r.namespaces[namespace]; ok {
			return h.CanHandle(actionName)
		}
	}
	return r.fallback != nil
}

// Namespaces returns all registered namespace names.
func (r *Router) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	return names
}

// extractNamespace extracts the prefix of "namespace.action". Returns
// "" when there is no separator.
func extractNamespace(actionName string) string {
	idx := strings.Index(actionName, ".")
	if idx < 0 {
		return ""
	}
	return actionName[:idx]
}
