package session

import (
	"strings"
	"sync"
)

// TailWindow keeps a bounded trailing window over a session's filtered
// output. It is the prompt classifier's sole input.
type TailWindow struct {
	mu  sync.Mutex
	buf []byte
	max int
}

// NewTailWindow creates a window holding at most max bytes.
func NewTailWindow(max int) *TailWindow {
	if max <= 0 {
		max = 256
	}
	return &TailWindow{max: max}
}

// Write appends text, discarding the oldest bytes beyond the bound.
func (w *TailWindow) Write(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, text...)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
}

// Tail returns the current window contents.
func (w *TailWindow) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}

// Len returns the number of buffered bytes.
func (w *TailWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Reset discards the window contents.
func (w *TailWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = w.buf[:0]
}

// Scrollback is a bounded line ring over a session's filtered output,
// feeding the display surface.
type Scrollback struct {
	mu       sync.Mutex
	lines    []string
	partial  string
	maxLines int
}

// NewScrollback creates a scrollback holding at most maxLines lines.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = 1000
	}
	return &Scrollback{maxLines: maxLines}
}

// Write appends text, splitting on newlines. A trailing fragment without
// a newline is held until completed by a later write.
func (s *Scrollback) Write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.partial += text
	for {
		idx := strings.IndexByte(s.partial, '\n')
		if idx < 0 {
			break
		}
		s.lines = append(s.lines, s.partial[:idx])
		s.partial = s.partial[idx+1:]
	}

	if len(s.lines) > s.maxLines {
		s.lines = s.lines[len(s.lines)-s.maxLines:]
	}
}

// Lines returns completed lines plus any trailing fragment.
func (s *Scrollback) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]string, 0, len(s.lines)+1)
	result = append(result, s.lines...)
	if s.partial != "" {
		result = append(result, s.partial)
	}
	return result
}

// Len returns the number of completed lines.
func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Clear discards all buffered lines.
func (s *Scrollback) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = s.lines[:0]
	s.partial = ""
}
