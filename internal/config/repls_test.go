package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/replstorm/internal/config/loader"
	"github.com/dshills/replstorm/internal/prompt"
)

func TestBuiltins(t *testing.T) {
	defs := Builtins()

	for _, name := range []string{"shell", "python", "ipython", "node", "julia"} {
		if _, ok := defs[name]; !ok {
			t.Errorf("missing built-in definition %q", name)
		}
	}
	if defs["shell"].Command != "sh" {
		t.Errorf("unexpected shell command %q", defs["shell"].Command)
	}
	if len(defs["julia"].Prompts) != 4 {
		t.Errorf("expected 4 julia prompt rules, got %d", len(defs["julia"].Prompts))
	}
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	defs, err := LoadDefinitions(loader.DefaultFS(), filepath.Join(t.TempDir(), "repls.yml"))
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}
	if len(defs) != len(Builtins()) {
		t.Errorf("expected built-ins only, got %d definitions", len(defs))
	}
}

func TestLoadDefinitionsMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repls.yml")
	content := `
repls:
  lua:
    command: lua
    args: ["-i"]
    prompts:
      - pattern: '^>$'
        symbol: '>'
  python:
    command: python3.12
    args: ["-i", "-q"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing definitions: %v", err)
	}

	defs, err := LoadDefinitions(loader.DefaultFS(), path)
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}

	lua, ok := defs["lua"]
	if !ok {
		t.Fatal("expected lua definition from file")
	}
	if lua.Command != "lua" || len(lua.Prompts) != 1 {
		t.Errorf("unexpected lua definition %+v", lua)
	}

	// File entries replace built-ins of the same name wholesale.
	if defs["python"].Command != "python3.12" {
		t.Errorf("expected python override, got %q", defs["python"].Command)
	}
	if len(defs["python"].Prompts) != 0 {
		t.Error("expected overriding entry to drop built-in prompts")
	}

	// Unrelated built-ins survive.
	if _, ok := defs["julia"]; !ok {
		t.Error("expected julia built-in retained")
	}
}

func TestLoadDefinitionsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repls.yml")
	if err := os.WriteFile(path, []byte("repls: [not: a map"), 0o644); err != nil {
		t.Fatalf("writing definitions: %v", err)
	}

	if _, err := LoadDefinitions(loader.DefaultFS(), path); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveDefinition(t *testing.T) {
	defs := Builtins()

	def, err := ResolveDefinition(defs, ReplConfig{Definition: "python"})
	if err != nil {
		t.Fatalf("ResolveDefinition failed: %v", err)
	}
	if def.Command != "python3" {
		t.Errorf("unexpected command %q", def.Command)
	}

	def, err = ResolveDefinition(defs, ReplConfig{
		Definition: "python",
		Command:    "pypy3",
		Args:       []string{"-i"},
		Env:        []string{"PYTHONUNBUFFERED=1"},
		Term:       "xterm",
	})
	if err != nil {
		t.Fatalf("ResolveDefinition failed: %v", err)
	}
	if def.Command != "pypy3" {
		t.Errorf("expected command override, got %q", def.Command)
	}
	if len(def.Args) != 1 || def.Args[0] != "-i" {
		t.Errorf("expected args override, got %v", def.Args)
	}
	if len(def.Env) != 1 || def.Env[0] != "PYTHONUNBUFFERED=1" {
		t.Errorf("expected env appended, got %v", def.Env)
	}
	if def.Term != "xterm" {
		t.Errorf("expected term override, got %q", def.Term)
	}
	// Prompts stay with the definition.
	if len(def.Prompts) != 2 {
		t.Errorf("expected prompts retained, got %d", len(def.Prompts))
	}
}

func TestResolveDefinitionUnknown(t *testing.T) {
	_, err := ResolveDefinition(Builtins(), ReplConfig{Definition: "fortran"})
	if !errors.Is(err, ErrNoDefinition) {
		t.Errorf("expected ErrNoDefinition, got %v", err)
	}
}

func TestPromptRules(t *testing.T) {
	def := Definition{
		Prompts: []PromptRule{
			{Pattern: `^julia>$`, Symbol: string(prompt.SymbolPrimary)},
			{Pattern: `^help\?>$`, Symbol: string(prompt.SymbolHelp)},
		},
	}

	rules := def.PromptRules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Pattern != `^julia>$` || rules[0].Symbol != prompt.SymbolPrimary {
		t.Errorf("unexpected first rule %+v", rules[0])
	}
	if rules[1].Symbol != prompt.SymbolHelp {
		t.Errorf("unexpected second rule %+v", rules[1])
	}
}

func TestDefinitionNames(t *testing.T) {
	names := DefinitionNames(map[string]Definition{
		"zsh": {}, "bash": {}, "node": {},
	})
	if len(names) != 3 || names[0] != "bash" || names[2] != "zsh" {
		t.Errorf("expected sorted names, got %v", names)
	}
}
