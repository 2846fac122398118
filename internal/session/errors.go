package session

import "errors"

var (
	// ErrReplNotFound indicates the REPL command is not on PATH.
	ErrReplNotFound = errors.New("repl command not found")

	// ErrSessionClosed indicates an operation on a terminated session.
	ErrSessionClosed = errors.New("session closed")

	// ErrRegistryClosed indicates the registry has been shut down.
	ErrRegistryClosed = errors.New("registry closed")

	// ErrInvalidSize indicates invalid pty dimensions.
	ErrInvalidSize = errors.New("invalid size")
)
