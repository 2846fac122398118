package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/replstorm/internal/config/loader"
)

// Default file names under the config directory.
const (
	SettingsFile    = "settings.toml"
	DefinitionsFile = "repls.yml"
)

// SessionConfig holds session spawn and buffer settings.
type SessionConfig struct {
	// DefaultName names the session used when no name is given.
	DefaultName string

	// WindowBytes bounds the readiness classification window.
	WindowBytes int

	// Scrollback bounds the retained output lines per session.
	Scrollback int

	// Cols and Rows size the pseudo-terminal.
	Cols int
	Rows int

	// KillGrace is how long to wait after close before force-killing.
	KillGrace time.Duration
}

// ReplConfig selects and overrides the REPL definition to launch.
type ReplConfig struct {
	// Definition is the name of the repls.yml entry to use.
	Definition string

	// Command overrides the definition's command when non-empty.
	Command string

	// Args overrides the definition's arguments when non-nil.
	Args []string

	// Env appends to the definition's environment.
	Env []string

	// Term is the TERM value exported to the child.
	Term string
}

// FilterConfig holds output filter settings.
type FilterConfig struct {
	// Scripts are paths to Lua filter scripts, applied in order after
	// the built-in filters.
	Scripts []string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
}

// ConsoleConfig holds console display settings.
type ConsoleConfig struct {
	// StatusLine shows the session status line at the bottom.
	StatusLine bool
}

// Config provides merged access to the replstorm configuration.
// Settings merge defaults, the TOML file, and environment variables,
// with later layers winning.
type Config struct {
	mu        sync.RWMutex
	settings  map[string]any
	configDir string
	fs        loader.FileSystem
}

// Option configures a Config instance.
type Option func(*Config)

// WithConfigDir sets the configuration directory.
func WithConfigDir(dir string) Option {
	return func(c *Config) {
		c.configDir = dir
	}
}

// WithFileSystem sets the file system used to read config files.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// New creates a Config with the given options.
func New(opts ...Option) *Config {
	c := &Config{fs: loader.DefaultFS()}
	for _, opt := range opts {
		opt(c)
	}
	if c.configDir == "" {
		c.configDir = DefaultConfigDir()
	}
	return c
}

// defaults returns the built-in settings layer.
func defaults() map[string]any {
	return map[string]any{
		"session": map[string]any{
			"defaultName": "main",
			"windowBytes": int64(256),
			"scrollback":  int64(1000),
			"cols":        int64(120),
			"rows":        int64(40),
			"killGrace":   "3s",
		},
		"repl": map[string]any{
			"definition": "shell",
			"term":       "dumb",
		},
		"filter": map[string]any{
			"scripts": []any{},
		},
		"logging": map[string]any{
			"level": "info",
		},
		"console": map[string]any{
			"statusLine": true,
		},
	}
}

// Load merges all settings layers. Later calls replace the merged
// view, so the watcher can trigger reloads.
func (c *Config) Load() error {
	settings := defaults()

	toml := loader.NewTOMLLoaderWithFS(c.fs, c.SettingsPath())
	fileSettings, err := toml.Load()
	if err != nil {
		return err
	}
	if fileSettings != nil {
		settings = loader.DeepMerge(settings, fileSettings)
	}

	env := loader.NewEnvLoader(loader.EnvPrefix)
	envSettings, err := env.Load()
	if err != nil {
		return err
	}
	settings = loader.DeepMerge(settings, envSettings)

	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	return nil
}

// ConfigDir returns the configuration directory.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// SettingsPath returns the path to the TOML settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.configDir, SettingsFile)
}

// DefinitionsPath returns the path to the repls.yml definitions file.
func (c *Config) DefinitionsPath() string {
	return filepath.Join(c.configDir, DefinitionsFile)
}

// Get retrieves a raw value by dot-separated path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getByPath(c.settings, path)
}

// Session returns a snapshot of the session settings.
func (c *Config) Session() SessionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SessionConfig{
		DefaultName: c.getString("session.defaultName", "main"),
		WindowBytes: c.getInt("session.windowBytes", 256),
		Scrollback:  c.getInt("session.scrollback", 1000),
		Cols:        c.getInt("session.cols", 120),
		Rows:        c.getInt("session.rows", 40),
		KillGrace:   c.getDuration("session.killGrace", 3*time.Second),
	}
}

// Repl returns a snapshot of the REPL selection settings.
func (c *Config) Repl() ReplConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ReplConfig{
		Definition: c.getString("repl.definition", "shell"),
		Command:    c.getString("repl.command", ""),
		Args:       c.getStringSlice("repl.args"),
		Env:        c.getStringSlice("repl.env"),
		Term:       c.getString("repl.term", "dumb"),
	}
}

// Filter returns a snapshot of the filter settings.
func (c *Config) Filter() FilterConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterConfig{
		Scripts: c.getStringSlice("filter.scripts"),
	}
}

// Logging returns a snapshot of the logging settings.
func (c *Config) Logging() LoggingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LoggingConfig{
		Level: c.getString("logging.level", "info"),
	}
}

// Console returns a snapshot of the console settings.
func (c *Config) Console() ConsoleConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConsoleConfig{
		StatusLine: c.getBool("console.statusLine", true),
	}
}

// Accessors below assume c.mu is held.

func (c *Config) getString(path, fallback string) string {
	if v, ok := getByPath(c.settings, path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func (c *Config) getInt(path string, fallback int) int {
	if v, ok := getByPath(c.settings, path); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return fallback
}

func (c *Config) getBool(path string, fallback bool) bool {
	if v, ok := getByPath(c.settings, path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func (c *Config) getDuration(path string, fallback time.Duration) time.Duration {
	if v, ok := getByPath(c.settings, path); ok {
		switch d := v.(type) {
		case time.Duration:
			return d
		case string:
			if parsed, err := time.ParseDuration(d); err == nil {
				return parsed
			}
		case int64:
			return time.Duration(d) * time.Second
		}
	}
	return fallback
}

func (c *Config) getStringSlice(path string) []string {
	v, ok := getByPath(c.settings, path)
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// getByPath retrieves a value from a nested map by dot-separated path.
func getByPath(settings map[string]any, path string) (any, bool) {
	current := settings
	parts := splitPath(path)
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		current, ok = v.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
