package config

import "errors"

// ErrNoDefinition indicates no REPL definition exists for the name.
var ErrNoDefinition = errors.New("no repl definition")
