package session

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// PTY represents a pseudo-terminal attached to a child process.
type PTY interface {
	// File returns the pty master file.
	File() *os.File

	// Read reads output produced by the child.
	Read(p []byte) (n int, err error)

	// Write sends input to the child.
	Write(p []byte) (n int, err error)

	// Resize changes the pty window size.
	Resize(cols, rows uint16) error

	// Close closes the pty master. The child sees EOF/SIGHUP.
	Close() error
}

// StartPTY starts a command attached to a new pty with the given size.
// The command runs in its own session with the pty as controlling terminal.
func StartPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}
	return &ptyWrapper{file: f}, nil
}

// ptyWrapper wraps the pty master file as a PTY.
type ptyWrapper struct {
	file *os.File
}

func (p *ptyWrapper) File() *os.File {
	return p.file
}

func (p *ptyWrapper) Read(buf []byte) (int, error) {
	return p.file.Read(buf)
}

func (p *ptyWrapper) Write(data []byte) (int, error) {
	return p.file.Write(data)
}

func (p *ptyWrapper) Resize(cols, rows uint16) error {
	return pty.Setsize(p.file, &pty.Winsize{Cols: cols, Rows: rows})
}

func (p *ptyWrapper) Close() error {
	return p.file.Close()
}
