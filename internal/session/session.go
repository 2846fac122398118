package session

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/replstorm/internal/filter"
)

// etx is the interrupt byte written by Interrupt (Ctrl-C).
const etx = 0x03

// DefaultKillGrace is how long Close waits for the child to exit after
// closing the pty before escalating to SIGKILL.
const DefaultKillGrace = 3 * time.Second

// Session is one live REPL process attached to a pty, together with the
// filter pipeline snapshot and output windows captured at creation time.
type Session struct {
	id   string
	name string

	pty      PTY
	cmd      *exec.Cmd
	pipeline *filter.Pipeline
	window   *TailWindow
	scroll   *Scrollback

	mu        sync.RWMutex
	done      chan struct{}
	exitCode  atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	killGrace time.Duration

	// Callbacks
	onOutput func(text string)
	onClose  func()

	// Weak back-reference to the driver that created or last switched
	// to this session. Last switch wins.
	driverID string
	driverMu sync.RWMutex
}

// Options configures a new session.
type Options struct {
	// Name is the human-chosen session name.
	Name string

	// Command is the REPL executable.
	Command string

	// Args are arguments to pass to the command.
	Args []string

	// Env are additional environment variables.
	Env []string

	// WorkDir is the working directory for the process.
	WorkDir string

	// Term is the TERM value (default xterm-256color).
	Term string

	// Cols is the pty width (default 80).
	Cols int

	// Rows is the pty height (default 24).
	Rows int

	// WindowBytes bounds the trailing output window (default 256).
	WindowBytes int

	// Scrollback is the number of scrollback lines (default 1000).
	Scrollback int

	// KillGrace is how long Close waits before SIGKILL.
	KillGrace time.Duration

	// Filters is the pipeline snapshot applied to all output.
	Filters *filter.Pipeline

	// PTY, when set, is used instead of spawning Command. The session
	// then has no underlying process; liveness follows the pty stream.
	PTY PTY

	// OnOutput is called with filtered text as it is produced.
	OnOutput func(text string)

	// OnClose is called exactly once when the session ends.
	OnClose func()
}

// New creates a session, spawning the REPL process unless a pty is
// supplied. A spawn failure leaves no running process behind.
func New(opts Options) (*Session, error) {
	if opts.Name == "" {
		opts.Name = "main"
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.Term == "" {
		opts.Term = "xterm-256color"
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = DefaultKillGrace
	}
	if opts.Filters == nil {
		opts.Filters = filter.NewPipeline()
	}

	s := &Session{
		id:        uuid.New().String(),
		name:      opts.Name,
		pipeline:  opts.Filters,
		window:    NewTailWindow(opts.WindowBytes),
		scroll:    NewScrollback(opts.Scrollback),
		done:      make(chan struct{}),
		killGrace: opts.KillGrace,
		onOutput:  opts.OnOutput,
		onClose:   opts.OnClose,
	}
	s.exitCode.Store(-1)

	if opts.PTY != nil {
		s.pty = opts.PTY
	} else {
		if opts.Command == "" {
			return nil, fmt.Errorf("%w: empty command", ErrReplNotFound)
		}
		if _, err := exec.LookPath(opts.Command); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrReplNotFound, opts.Command)
		}

		cmd := exec.Command(opts.Command, opts.Args...)
		cmd.Dir = opts.WorkDir
		cmd.Env = os.Environ()
		cmd.Env = append(cmd.Env, opts.Env...)
		cmd.Env = append(cmd.Env, "TERM="+opts.Term)

		pty, err := StartPTY(cmd, uint16(opts.Cols), uint16(opts.Rows))
		if err != nil {
			return nil, fmt.Errorf("start pty: %w", err)
		}
		s.cmd = cmd
		s.pty = pty
	}

	go s.readLoop()

	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Name returns the session's name.
func (s *Session) Name() string {
	return s.name
}

// PID returns the REPL process ID, or -1 if there is no process.
func (s *Session) PID() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// IsAlive reports whether the session's process is still running.
func (s *Session) IsAlive() bool {
	if s.closed.Load() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the session's output stream ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ExitCode returns the process exit code, or -1 while running.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// Write sends raw bytes to the REPL's input.
func (s *Session) Write(data []byte) (int, error) {
	if !s.IsAlive() {
		return 0, ErrSessionClosed
	}
	return s.pty.Write(data)
}

// WriteString sends a string to the REPL's input.
func (s *Session) WriteString(text string) (int, error) {
	return s.Write([]byte(text))
}

// SendLine trims the line and writes it with a guaranteed trailing
// newline. An empty line after trimming is not sent.
func (s *Session) SendLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	_, err := s.WriteString(line + "\n")
	return err
}

// SendText writes text as a single chunk, appending a newline only if
// the text does not already end in one. Multi-line text is not split;
// the pty line discipline handles it.
func (s *Session) SendText(text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := s.WriteString(text)
	return err
}

// Interrupt sends ETX (Ctrl-C) to the REPL.
func (s *Session) Interrupt() error {
	_, err := s.Write([]byte{etx})
	return err
}

// Resize changes the pty size.
func (s *Session) Resize(cols, rows int) error {
	if !s.IsAlive() {
		return ErrSessionClosed
	}
	if cols < 1 || rows < 1 {
		return ErrInvalidSize
	}
	return s.pty.Resize(uint16(cols), uint16(rows))
}

// Window returns the trailing filtered-output window.
func (s *Session) Window() string {
	return s.window.Tail()
}

// Scrollback returns the session's scrollback buffer.
func (s *Session) Scrollback() *Scrollback {
	return s.scroll
}

// SetDriver records the endpoint that created or last switched here.
func (s *Session) SetDriver(id string) {
	s.driverMu.Lock()
	defer s.driverMu.Unlock()
	s.driverID = id
}

// Driver returns the last recorded endpoint id, if any.
func (s *Session) Driver() string {
	s.driverMu.RLock()
	defer s.driverMu.RUnlock()
	return s.driverID
}

// Close terminates the session. It closes the pty first, giving the
// child EOF/SIGHUP, then escalates to SIGKILL after the grace window.
// Idempotent; closing a closed session is a no-op.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.pty.Close()

	select {
	case <-s.done:
	case <-time.After(s.killGrace):
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		<-s.done
	}

	return nil
}

// readLoop captures output asynchronously, applies the filter pipeline
// and feeds the window, scrollback, and output callback in order.
func (s *Session) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			text := s.pipeline.Apply(string(buf[:n]))
			if text != "" {
				s.window.Write(text)
				s.scroll.Write(text)
				if s.onOutput != nil {
					s.onOutput(text)
				}
			}
		}
		if err != nil {
			break
		}
	}

	if s.cmd != nil && s.cmd.Process != nil {
		state, _ := s.cmd.Process.Wait()
		if state != nil {
			s.exitCode.Store(int32(state.ExitCode()))
		}
	}

	close(s.done)

	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}
