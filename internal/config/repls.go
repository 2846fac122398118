package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/replstorm/internal/config/loader"
	"github.com/dshills/replstorm/internal/prompt"
)

// PromptRule is one prompt pattern in a REPL definition. Pattern is a
// regular expression matched against the trimmed last output line.
type PromptRule struct {
	Pattern string `yaml:"pattern"`
	Symbol  string `yaml:"symbol"`
}

// Definition describes how to launch one kind of REPL and how to
// recognize its prompts.
type Definition struct {
	Command string       `yaml:"command"`
	Args    []string     `yaml:"args"`
	Env     []string     `yaml:"env"`
	Term    string       `yaml:"term"`
	Prompts []PromptRule `yaml:"prompts"`
}

// definitionsFile is the repls.yml document shape.
type definitionsFile struct {
	Repls map[string]Definition `yaml:"repls"`
}

// Builtins returns the built-in REPL definitions. Prompt patterns are
// written against the trimmed last line, so trailing spaces in the
// real prompt do not appear here.
func Builtins() map[string]Definition {
	return map[string]Definition{
		"shell": {
			Command: "sh",
			Args:    []string{"-i"},
			Prompts: []PromptRule{
				{Pattern: `[$#]$`, Symbol: string(prompt.SymbolShell)},
				{Pattern: `>$`, Symbol: string(prompt.SymbolContinuation)},
			},
		},
		"python": {
			Command: "python3",
			Args:    []string{"-i", "-q"},
			Prompts: []PromptRule{
				{Pattern: `^>>>$`, Symbol: string(prompt.SymbolPrimary)},
				{Pattern: `^\.\.\.$`, Symbol: string(prompt.SymbolContinuation)},
			},
		},
		"ipython": {
			Command: "ipython",
			Args:    []string{"--simple-prompt"},
			Prompts: []PromptRule{
				{Pattern: `^In \[\d+\]:$`, Symbol: string(prompt.SymbolPrimary)},
				{Pattern: `^\s*\.\.\.:$`, Symbol: string(prompt.SymbolContinuation)},
			},
		},
		"node": {
			Command: "node",
			Args:    []string{"-i"},
			Prompts: []PromptRule{
				{Pattern: `^>$`, Symbol: string(prompt.SymbolPrimary)},
				{Pattern: `^\.\.\.$`, Symbol: string(prompt.SymbolContinuation)},
			},
		},
		"julia": {
			Command: "julia",
			Args:    []string{"-i", "--color=no"},
			Prompts: []PromptRule{
				{Pattern: `^julia>$`, Symbol: string(prompt.SymbolPrimary)},
				{Pattern: `^help\?>$`, Symbol: string(prompt.SymbolHelp)},
				{Pattern: `^pkg>$`, Symbol: string(prompt.SymbolPkg)},
				{Pattern: `^shell>$`, Symbol: string(prompt.SymbolShell)},
			},
		},
	}
}

// LoadDefinitions reads repls.yml from path and merges its entries
// over the built-ins. A missing file yields the built-ins alone.
func LoadDefinitions(fs loader.FileSystem, path string) (map[string]Definition, error) {
	defs := Builtins()

	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defs, nil
		}
		return nil, fmt.Errorf("reading repl definitions %s: %w", path, err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing repl definitions %s: %w", path, err)
	}

	for name, def := range file.Repls {
		defs[name] = def
	}
	return defs, nil
}

// ResolveDefinition looks up a definition and applies the overrides
// from the repl settings section.
func ResolveDefinition(defs map[string]Definition, cfg ReplConfig) (Definition, error) {
	def, ok := defs[cfg.Definition]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNoDefinition, cfg.Definition)
	}

	if cfg.Command != "" {
		def.Command = cfg.Command
	}
	if cfg.Args != nil {
		def.Args = cfg.Args
	}
	if len(cfg.Env) > 0 {
		def.Env = append(def.Env, cfg.Env...)
	}
	if cfg.Term != "" {
		def.Term = cfg.Term
	}
	return def, nil
}

// PromptRules converts a definition's prompt rules into classifier
// rules, in declaration order.
func (d Definition) PromptRules() []prompt.Rule {
	rules := make([]prompt.Rule, 0, len(d.Prompts))
	for _, p := range d.Prompts {
		rules = append(rules, prompt.Rule{
			Pattern: p.Pattern,
			Symbol:  prompt.Symbol(p.Symbol),
		})
	}
	return rules
}

// DefinitionNames returns the definition names, sorted.
func DefinitionNames(defs map[string]Definition) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
