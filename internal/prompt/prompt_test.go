package prompt

import "testing"

func juliaRules() []Rule {
	return []Rule{
		{Pattern: `^julia>$`, Symbol: SymbolPrimary},
		{Pattern: `^help\?>$`, Symbol: SymbolHelp},
		{Pattern: `^pkg>$`, Symbol: SymbolPkg},
		{Pattern: `^shell>$`, Symbol: SymbolShell},
	}
}

func TestClassifyPrimaryPrompt(t *testing.T) {
	c, err := NewClassifier(juliaRules())
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	tests := []struct {
		name   string
		window string
		want   Symbol
	}{
		{"prompt with trailing space", "1 + 1\n2\n\njulia> ", SymbolPrimary},
		{"prompt with trailing newline", "julia>\n", SymbolPrimary},
		{"help prompt", "some output\nhelp?> ", SymbolHelp},
		{"pkg prompt", "pkg> ", SymbolPkg},
		{"shell prompt", "shell> ", SymbolShell},
		{"still computing", "computing\n", SymbolNone},
		{"mid output", "julia> 1 + 1\nworking...", SymbolNone},
		{"empty window", "", SymbolNone},
		{"whitespace only", "  \n\t\n", SymbolNone},
		{"crlf tail", "output\r\njulia> \r\n", SymbolPrimary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.window); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.window, got, tt.want)
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c, err := NewClassifier([]Rule{
		{Pattern: `>$`, Symbol: SymbolPrimary},
		{Pattern: `^julia>$`, Symbol: SymbolHelp},
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	if got := c.Classify("julia> "); got != SymbolPrimary {
		t.Errorf("expected first rule to win, got %q", got)
	}
}

func TestClassifyShortWindow(t *testing.T) {
	c, err := NewClassifier([]Rule{{Pattern: `^>>>$`, Symbol: SymbolPrimary}})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	// A window shorter than the configured bound classifies normally.
	if got := c.Classify(">>> "); got != SymbolPrimary {
		t.Errorf("expected primary on short window, got %q", got)
	}
}

func TestNewClassifierBadPattern(t *testing.T) {
	if _, err := NewClassifier([]Rule{{Pattern: `([`, Symbol: SymbolPrimary}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestReady(t *testing.T) {
	c, err := NewClassifier(juliaRules())
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	if !c.Ready("julia> ") {
		t.Error("expected ready at prompt")
	}
	if c.Ready("busy busy\n") {
		t.Error("expected not ready mid-output")
	}
	if SymbolNone.Ready() {
		t.Error("SymbolNone must not be ready")
	}
	if !SymbolContinuation.Ready() {
		t.Error("continuation prompt counts as ready")
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a\nb\nc", "c"},
		{"a\nb\nc\n", "c"},
		{"a\r\nb\r\n", "b"},
		{"single", "single"},
		{"trailing spaces   ", "trailing spaces"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := LastLine(tt.input); got != tt.want {
			t.Errorf("LastLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
