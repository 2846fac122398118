package filter

import (
	"regexp"
	"strings"
	"sync"
)

// Func transforms one output chunk. Filters compose left to right: each
// receives the output of its predecessor.
type Func func(chunk string) string

// Pipeline is an immutable, ordered filter chain. Sessions capture a
// pipeline snapshot at creation time; later registrations do not affect
// existing sessions.
type Pipeline struct {
	filters []Func
}

// NewPipeline creates a pipeline over the given filters, applied in
// argument order.
func NewPipeline(filters ...Func) *Pipeline {
	p := &Pipeline{filters: make([]Func, len(filters))}
	copy(p.filters, filters)
	return p
}

// Apply runs the chunk through every filter in registration order.
func (p *Pipeline) Apply(chunk string) string {
	for _, f := range p.filters {
		chunk = f(chunk)
	}
	return chunk
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}

// List is the mutable registration list. Registration order is
// preserved; no dedup, no priority.
type List struct {
	mu      sync.RWMutex
	filters []Func
}

// NewList creates a filter list seeded with the given filters.
func NewList(filters ...Func) *List {
	l := &List{filters: make([]Func, len(filters))}
	copy(l.filters, filters)
	return l
}

// Register appends a filter to the end of the list.
func (l *List) Register(f Func) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters = append(l.filters, f)
}

// Snapshot returns an immutable pipeline over the current list.
func (l *List) Snapshot() *Pipeline {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return NewPipeline(l.filters...)
}

// Len returns the number of registered filters.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.filters)
}

// escapePattern matches CSI and other ESC-introduced sequences plus OSC
// strings terminated by BEL or ST.
var escapePattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[@-Z\\-_]`)

// StripEscapes removes terminal escape sequences and control characters
// other than newline, carriage return, and tab, leaving plain text.
func StripEscapes(chunk string) string {
	chunk = escapePattern.ReplaceAllString(chunk, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, chunk)
}

// NormalizeNewlines converts CRLF and bare CR to LF.
func NormalizeNewlines(chunk string) string {
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	return strings.ReplaceAll(chunk, "\r", "\n")
}

// Defaults returns the built-in filter chain applied ahead of any
// user-registered filters.
func Defaults() []Func {
	return []Func{StripEscapes, NormalizeNewlines}
}
