package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrInitialization indicates an initialization failure.
	ErrInitialization = errors.New("initialization failed")

	// ErrShutdownTimeout indicates shutdown timed out.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// InitError wraps a component initialization failure.
type InitError struct {
	Component string
	Err       error
}

// NewInitError creates an InitError for a component.
func NewInitError(component string, err error) *InitError {
	return &InitError{Component: component, Err: err}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Is reports ErrInitialization for all init errors.
func (e *InitError) Is(target error) bool {
	return target == ErrInitialization
}
