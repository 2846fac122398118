// Package console renders attached sessions on a terminal screen.
//
// The console shows the focused session's scrollback above a status
// line and passes typed keys straight through to the session's
// pseudo-terminal. A few chords are reserved for console control; see
// the key handling in Console.handleKey.
package console
