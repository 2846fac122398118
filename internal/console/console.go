package console

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/replstorm/internal/prompt"
	"github.com/dshills/replstorm/internal/session"
)

// ActionFunc dispatches a named console action such as "repl.restart".
type ActionFunc func(action string)

// Console displays session output on a tcell screen.
type Console struct {
	mu sync.Mutex

	screen     tcell.Screen
	registry   *session.Registry
	classifier *prompt.Classifier

	focused    string
	statusLine bool

	onAction ActionFunc

	quitCh   chan struct{}
	quitOnce sync.Once
	running  bool
}

// Option configures a Console.
type Option func(*Console)

// WithStatusLine controls the status line at the bottom of the screen.
func WithStatusLine(enable bool) Option {
	return func(c *Console) {
		c.statusLine = enable
	}
}

// WithActionFunc sets the dispatch callback for reserved chords.
func WithActionFunc(fn ActionFunc) Option {
	return func(c *Console) {
		c.onAction = fn
	}
}

// New creates a console on the given screen. Pass a
// tcell.SimulationScreen for tests; the screen must not be initialized
// yet.
func New(screen tcell.Screen, registry *session.Registry, classifier *prompt.Classifier, opts ...Option) *Console {
	c := &Console{
		screen:     screen,
		registry:   registry,
		classifier: classifier,
		statusLine: true,
		quitCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init initializes the screen.
func (c *Console) Init() error {
	if err := c.screen.Init(); err != nil {
		return err
	}
	c.screen.EnablePaste()
	return nil
}

// Run polls screen events until Stop is called or the quit chord is
// pressed. Init must have been called.
func (c *Console) Run() error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	c.Redraw()

	for {
		select {
		case <-c.quitCh:
			return nil
		default:
		}

		ev := c.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			if c.handleKey(e) {
				return nil
			}
		case *tcell.EventResize:
			c.syncSize(e)
		}
	}
}

// Stop ends the event loop and releases the screen.
func (c *Console) Stop() {
	c.quitOnce.Do(func() {
		close(c.quitCh)
	})
	c.screen.Fini()
}

// Done returns a channel closed when the console has quit.
func (c *Console) Done() <-chan struct{} {
	return c.quitCh
}

// ShowSession focuses the named session and redraws.
func (c *Console) ShowSession(name string) {
	c.mu.Lock()
	c.focused = name
	c.mu.Unlock()
	c.Redraw()
}

// Clear clears the display surface.
func (c *Console) Clear() {
	c.screen.Clear()
	c.Redraw()
}

// Focused returns the name of the focused session.
func (c *Console) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// Feed notifies the console of new output for a session. Output for an
// unfocused session only updates the status line counts.
func (c *Console) Feed(name, _ string) {
	c.mu.Lock()
	focused := c.focused
	c.mu.Unlock()

	if focused == "" || focused == name {
		if focused == "" {
			c.mu.Lock()
			c.focused = name
			c.mu.Unlock()
		}
		c.Redraw()
	}
}

// handleKey processes one key event. Returns true when the console
// should quit. Reserved chords: Ctrl-Q quits, Ctrl-T cycles sessions,
// Alt-R restarts, Alt-I interrupts, Alt-L clears. Everything else is
// written to the focused session's pty unchanged.
func (c *Console) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyCtrlQ:
		c.quitOnce.Do(func() {
			close(c.quitCh)
		})
		return true

	case ev.Key() == tcell.KeyCtrlT:
		c.cycleFocus()
		return false

	case ev.Modifiers()&tcell.ModAlt != 0 && ev.Rune() == 'r':
		c.dispatch("repl.restart")
		return false

	case ev.Modifiers()&tcell.ModAlt != 0 && ev.Rune() == 'i':
		c.dispatch("repl.interrupt")
		return false

	case ev.Modifiers()&tcell.ModAlt != 0 && ev.Rune() == 'l':
		c.dispatch("repl.clear")
		return false
	}

	if data := encodeKey(ev); len(data) > 0 {
		c.writeFocused(data)
	}
	return false
}

// dispatch forwards a reserved chord to the action callback.
func (c *Console) dispatch(action string) {
	c.mu.Lock()
	fn := c.onAction
	c.mu.Unlock()
	if fn != nil {
		fn(action)
	}
}

// cycleFocus moves focus to the next session in creation order.
func (c *Console) cycleFocus() {
	names := c.registry.Names()
	if len(names) == 0 {
		return
	}

	c.mu.Lock()
	next := names[0]
	for i, name := range names {
		if name == c.focused {
			next = names[(i+1)%len(names)]
			break
		}
	}
	c.focused = next
	c.mu.Unlock()

	c.Redraw()
}

// writeFocused writes raw bytes to the focused session's pty.
func (c *Console) writeFocused(data []byte) {
	c.mu.Lock()
	focused := c.focused
	c.mu.Unlock()

	if focused == "" {
		return
	}
	sess, ok := c.registry.Get(focused)
	if !ok {
		return
	}
	_, _ = sess.Write(data)
}

// syncSize resizes the focused session's pty to match the screen.
func (c *Console) syncSize(ev *tcell.EventResize) {
	w, h := ev.Size()
	if c.statusLine {
		h--
	}

	c.mu.Lock()
	focused := c.focused
	c.mu.Unlock()

	if sess, ok := c.registry.Get(focused); ok {
		_ = sess.Resize(w, h)
	}
	c.Redraw()
}

// Redraw repaints the scrollback and status line.
func (c *Console) Redraw() {
	c.mu.Lock()
	focused := c.focused
	c.mu.Unlock()

	c.screen.Clear()
	width, height := c.screen.Size()

	contentRows := height
	if c.statusLine {
		contentRows--
	}

	if sess, ok := c.registry.Get(focused); ok {
		c.drawScrollback(sess, width, contentRows)
	}
	if c.statusLine {
		c.drawStatus(focused, width, height-1)
	}
	c.screen.Show()
}

// drawScrollback paints the session's trailing lines bottom-anchored.
func (c *Console) drawScrollback(sess *session.Session, width, rows int) {
	if rows <= 0 {
		return
	}

	lines := sess.Scrollback().Lines()
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}

	y := rows - len(lines)
	for _, line := range lines {
		drawText(c.screen, 0, y, width, line, tcell.StyleDefault)
		y++
	}
}

// drawStatus paints the status line: focused session, readiness
// symbol, and session count.
func (c *Console) drawStatus(focused string, width, y int) {
	symbol := "-"
	if sess, ok := c.registry.Get(focused); ok {
		if s := c.classifier.Classify(sess.Window()); s.Ready() {
			symbol = string(s)
		} else {
			symbol = "busy"
		}
	}

	status := fmt.Sprintf(" %s  [%s]  %d session(s)", focused, symbol, c.registry.Count())
	style := tcell.StyleDefault.Reverse(true)

	for x := 0; x < width; x++ {
		c.screen.SetContent(x, y, ' ', nil, style)
	}
	drawText(c.screen, 0, y, width, status, style)
}

// drawText writes a string clipped to the given width.
func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= width {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}
