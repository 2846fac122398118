// Package filter provides the ordered output-filter pipeline applied to
// everything a REPL session emits before it reaches the display surface
// or the prompt classifier.
package filter
