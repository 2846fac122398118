// Package prompt classifies a REPL session's readiness from the
// trailing window of its display-stripped output.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Symbol is a readiness classification. The zero Symbol means the
// session is not known to be ready.
type Symbol string

// SymbolNone is the not-ready classification.
const SymbolNone Symbol = ""

// Built-in readiness symbols.
const (
	SymbolPrimary      Symbol = "primary"
	SymbolContinuation Symbol = "continuation"
	SymbolHelp         Symbol = "help"
	SymbolPkg          Symbol = "pkg"
	SymbolShell        Symbol = "shell"
)

// Ready reports whether the symbol indicates a prompt was recognized.
func (s Symbol) Ready() bool {
	return s != SymbolNone
}

// Rule maps a prompt-line pattern to a readiness symbol. Rules are
// ordered; the first match wins.
type Rule struct {
	Pattern string
	Symbol  Symbol
}

// compiledRule pairs a compiled pattern with its symbol.
type compiledRule struct {
	re     *regexp.Regexp
	symbol Symbol
}

// Classifier matches the final line of an output window against an
// ordered rule table. It is pure: classification has no side effects
// and may run at any time.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles the rule table once. A bad pattern fails the
// whole table.
func NewClassifier(rules []Rule) (*Classifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling prompt pattern %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, symbol: r.Symbol})
	}
	return &Classifier{rules: compiled}, nil
}

// Classify extracts the final newline-delimited line of the window,
// after trimming trailing whitespace and newlines, and returns the
// symbol of the first matching rule. No match yields SymbolNone. The
// window must already be display-stripped plain text; windows shorter
// than the configured bound classify normally.
func (c *Classifier) Classify(window string) Symbol {
	line := LastLine(window)
	if line == "" {
		return SymbolNone
	}
	for _, r := range c.rules {
		if r.re.MatchString(line) {
			return r.symbol
		}
	}
	return SymbolNone
}

// Ready reports whether the window's tail matches any rule.
func (c *Classifier) Ready(window string) bool {
	return c.Classify(window).Ready()
}

// Len returns the number of compiled rules.
func (c *Classifier) Len() int {
	return len(c.rules)
}

// LastLine returns the final line of text after trimming trailing
// whitespace and newlines.
func LastLine(text string) string {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimSuffix(trimmed, "\r")
}
