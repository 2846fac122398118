package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/replstorm/internal/config/loader"
)

func newTestConfig(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	return New(WithConfigDir(dir)), dir
}

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	c, _ := newTestConfig(t)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sess := c.Session()
	if sess.DefaultName != "main" {
		t.Errorf("expected default session name main, got %q", sess.DefaultName)
	}
	if sess.WindowBytes != 256 {
		t.Errorf("expected 256 window bytes, got %d", sess.WindowBytes)
	}
	if sess.Scrollback != 1000 {
		t.Errorf("expected 1000 scrollback lines, got %d", sess.Scrollback)
	}
	if sess.Cols != 120 || sess.Rows != 40 {
		t.Errorf("unexpected pty size %dx%d", sess.Cols, sess.Rows)
	}
	if sess.KillGrace != 3*time.Second {
		t.Errorf("unexpected kill grace %v", sess.KillGrace)
	}

	repl := c.Repl()
	if repl.Definition != "shell" {
		t.Errorf("expected shell definition, got %q", repl.Definition)
	}
	if repl.Term != "dumb" {
		t.Errorf("expected dumb term, got %q", repl.Term)
	}

	if c.Logging().Level != "info" {
		t.Errorf("expected info level, got %q", c.Logging().Level)
	}
	if !c.Console().StatusLine {
		t.Error("expected status line on by default")
	}
	if len(c.Filter().Scripts) != 0 {
		t.Errorf("expected no filter scripts, got %v", c.Filter().Scripts)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	c, dir := newTestConfig(t)
	writeSettings(t, dir, `
[session]
scrollback = 200
killGrace = "1s"

[repl]
definition = "python"

[logging]
level = "debug"

[console]
statusLine = false

[filter]
scripts = ["strip.lua", "timestamps.lua"]
`)

	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sess := c.Session()
	if sess.Scrollback != 200 {
		t.Errorf("expected 200 scrollback, got %d", sess.Scrollback)
	}
	if sess.KillGrace != time.Second {
		t.Errorf("expected 1s kill grace, got %v", sess.KillGrace)
	}
	// Unset keys keep their defaults.
	if sess.WindowBytes != 256 {
		t.Errorf("expected default window bytes, got %d", sess.WindowBytes)
	}

	if c.Repl().Definition != "python" {
		t.Errorf("expected python definition, got %q", c.Repl().Definition)
	}
	if c.Logging().Level != "debug" {
		t.Errorf("expected debug level, got %q", c.Logging().Level)
	}
	if c.Console().StatusLine {
		t.Error("expected status line disabled")
	}
	scripts := c.Filter().Scripts
	if len(scripts) != 2 || scripts[0] != "strip.lua" {
		t.Errorf("unexpected scripts %v", scripts)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	c, dir := newTestConfig(t)
	writeSettings(t, dir, "[logging]\nlevel = \"debug\"\n")
	t.Setenv("REPLSTORM_LOG_LEVEL", "error")

	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Logging().Level != "error" {
		t.Errorf("expected env to win, got %q", c.Logging().Level)
	}
}

func TestEnvGenericPaths(t *testing.T) {
	c, _ := newTestConfig(t)
	t.Setenv("REPLSTORM_SESSION_WINDOW_BYTES", "512")
	t.Setenv("REPLSTORM_CONSOLE_STATUS_LINE", "off")
	t.Setenv("REPLSTORM_KILL_GRACE", "250ms")

	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Session().WindowBytes; got != 512 {
		t.Errorf("expected 512 window bytes, got %d", got)
	}
	if c.Console().StatusLine {
		t.Error("expected status line off via env")
	}
	if got := c.Session().KillGrace; got != 250*time.Millisecond {
		t.Errorf("expected 250ms kill grace, got %v", got)
	}
}

func TestReloadReplacesView(t *testing.T) {
	c, dir := newTestConfig(t)
	writeSettings(t, dir, "[logging]\nlevel = \"debug\"\n")
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeSettings(t, dir, "[logging]\nlevel = \"warn\"\n")
	if err := c.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if c.Logging().Level != "warn" {
		t.Errorf("expected reload to pick up warn, got %q", c.Logging().Level)
	}
}

func TestBadSettingsFile(t *testing.T) {
	c, dir := newTestConfig(t)
	writeSettings(t, dir, "not = [valid toml")

	err := c.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *loader.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestPaths(t *testing.T) {
	c, dir := newTestConfig(t)
	if c.ConfigDir() != dir {
		t.Errorf("unexpected config dir %q", c.ConfigDir())
	}
	if c.SettingsPath() != filepath.Join(dir, SettingsFile) {
		t.Errorf("unexpected settings path %q", c.SettingsPath())
	}
	if c.DefinitionsPath() != filepath.Join(dir, DefinitionsFile) {
		t.Errorf("unexpected definitions path %q", c.DefinitionsPath())
	}
}

func TestGetByPath(t *testing.T) {
	c, _ := newTestConfig(t)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v, ok := c.Get("session.defaultName"); !ok || v != "main" {
		t.Errorf("Get(session.defaultName) = %v, %v", v, ok)
	}
	if _, ok := c.Get("session.missing"); ok {
		t.Error("expected miss for unknown key")
	}
	if _, ok := c.Get("session.defaultName.deeper"); ok {
		t.Error("expected miss when path descends through a leaf")
	}
}
