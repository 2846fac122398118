package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing toml: %v", err)
	}
	return path
}

func TestTOMLLoad(t *testing.T) {
	path := writeTOML(t, `
[session]
scrollback = 500
defaultName = "work"

[console]
statusLine = false
`)

	settings, err := NewTOMLLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	session, ok := settings["session"].(map[string]any)
	if !ok {
		t.Fatalf("expected session table, got %T", settings["session"])
	}
	if session["scrollback"] != int64(500) {
		t.Errorf("unexpected scrollback %v", session["scrollback"])
	}
	if session["defaultName"] != "work" {
		t.Errorf("unexpected defaultName %v", session["defaultName"])
	}
}

func TestTOMLLoadMissingFile(t *testing.T) {
	settings, err := NewTOMLLoader(filepath.Join(t.TempDir(), "absent.toml")).Load()
	if err != nil {
		t.Fatalf("expected missing file tolerated, got %v", err)
	}
	if settings != nil {
		t.Errorf("expected nil settings, got %v", settings)
	}
}

func TestTOMLLoadParseError(t *testing.T) {
	path := writeTOML(t, "broken = [")

	_, err := NewTOMLLoader(path).Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if parseErr.Path != path {
		t.Errorf("expected path in error, got %q", parseErr.Path)
	}
}

func TestTOMLLoadFromReader(t *testing.T) {
	settings, err := NewTOMLLoader("").LoadFromReader(strings.NewReader("key = \"value\""))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if settings["key"] != "value" {
		t.Errorf("unexpected settings %v", settings)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"session": map[string]any{
			"scrollback": int64(1000),
			"cols":       int64(120),
		},
		"level": "info",
	}
	src := map[string]any{
		"session": map[string]any{
			"scrollback": int64(200),
		},
		"level": "debug",
		"extra": true,
	}

	merged := DeepMerge(dst, src)

	session := merged["session"].(map[string]any)
	if session["scrollback"] != int64(200) {
		t.Errorf("expected src to win, got %v", session["scrollback"])
	}
	if session["cols"] != int64(120) {
		t.Errorf("expected dst sibling kept, got %v", session["cols"])
	}
	if merged["level"] != "debug" {
		t.Errorf("expected scalar replaced, got %v", merged["level"])
	}
	if merged["extra"] != true {
		t.Error("expected src-only key added")
	}
}

func TestDeepMergeNilDst(t *testing.T) {
	merged := DeepMerge(nil, map[string]any{"a": 1})
	if merged["a"] != 1 {
		t.Errorf("expected merge into fresh map, got %v", merged)
	}
}

func TestDeepMergeTypeMismatch(t *testing.T) {
	dst := map[string]any{"key": map[string]any{"nested": 1}}
	src := map[string]any{"key": "flat"}

	merged := DeepMerge(dst, src)
	if merged["key"] != "flat" {
		t.Errorf("expected non-map src to replace map, got %v", merged["key"])
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"value": 1},
		"list":   []any{"a", map[string]any{"b": 2}},
	}

	clone := Clone(original)
	clone["nested"].(map[string]any)["value"] = 99
	clone["list"].([]any)[0] = "changed"

	if original["nested"].(map[string]any)["value"] != 1 {
		t.Error("expected nested map independence")
	}
	if original["list"].([]any)[0] != "a" {
		t.Error("expected slice independence")
	}
	if Clone(nil) != nil {
		t.Error("expected nil clone of nil")
	}
}
