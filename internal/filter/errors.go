package filter

import "errors"

var (
	// ErrStateClosed indicates use of a closed Lua script state.
	ErrStateClosed = errors.New("lua state closed")

	// ErrNotFunction indicates a filter script without a filter function.
	ErrNotFunction = errors.New("script does not define a filter function")
)
