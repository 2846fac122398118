// Package session manages named, pty-backed REPL sessions. A Session
// pairs a spawned interpreter process with its output filter pipeline
// and trailing-output window; the Registry owns session lifecycle and
// name resolution.
package session
