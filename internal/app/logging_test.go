package app

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(LoggerConfig{Level: level, Output: buf, Prefix: "test"}), buf
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("expected low levels filtered, got %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error logged, got %q", out)
	}
}

func TestLoggerFormat(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.Info("value is %d", 42)

	out := buf.String()
	if !strings.Contains(out, "[INFO] test: value is 42") {
		t.Errorf("unexpected log line %q", out)
	}
}

func TestLoggerWithField(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.WithComponent("registry").Info("started")

	out := buf.String()
	if !strings.Contains(out, "component=registry") {
		t.Errorf("expected component field, got %q", out)
	}

	// The parent logger is unchanged.
	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "component=") {
		t.Errorf("expected parent without fields, got %q", buf.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelError)

	logger.Info("dropped")
	logger.SetLevel(LogLevelDebug)
	logger.Info("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("expected message filtered before SetLevel, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected message after SetLevel, got %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"nonsense", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNullLogger(t *testing.T) {
	app := &Application{}
	if app.Logger() != NullLogger {
		t.Error("expected NullLogger fallback")
	}
	// Discarding must not panic.
	app.Logger().Error("nothing happens")
}
