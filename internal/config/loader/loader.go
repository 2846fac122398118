// Package loader reads configuration sources into generic maps.
//
// Sources are TOML files and prefixed environment variables. A missing
// file yields nil, nil rather than an error so callers can layer
// optional files freely.
package loader

import (
	"io"
	"io/fs"
	"os"
)

// Loader reads configuration from a source into a map.
type Loader interface {
	// Load returns the source's settings, or nil, nil when the source
	// does not exist.
	Load() (map[string]any, error)
}

// ReaderLoader reads configuration from an io.Reader.
type ReaderLoader interface {
	LoadFromReader(r io.Reader) (map[string]any, error)
}

// FileSystem abstracts file access so tests can substitute in-memory
// trees.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS is the real file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
