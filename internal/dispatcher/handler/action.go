// Package handler provides the handler interface and types for action
// dispatch.
package handler

// Action is one dispatchable request, named "namespace.operation"
// (e.g. "repl.sendLine").
type Action struct {
	// Name is the full action name including namespace.
	Name string

	// Args holds action-specific arguments.
	Args map[string]any
}

// NewAction creates an action with no arguments.
func NewAction(name string) Action {
	return Action{Name: name}
}

// WithArg returns a copy of the action with an argument set.
func (a Action) WithArg(key string, value any) Action {
	args := make(map[string]any, len(a.Args)+1)
	for k, v := range a.Args {
		args[k] = v
	}
	args[key] = value
	a.Args = args
	return a
}

// ArgString retrieves a string argument.
func (a Action) ArgString(key string) string {
	if v, ok := a.Args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ArgBool retrieves a bool argument.
func (a Action) ArgBool(key string) bool {
	if v, ok := a.Args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// HasArg reports whether the argument is present.
func (a Action) HasArg(key string) bool {
	_, ok := a.Args[key]
	return ok
}
