package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/quire/internal/config"
)

func fixedLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	l := NewLogger(LoggerConfig{Level: level, Output: buf, Prefix: "quire"})
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}

// ============================================================================
// Levels
// ============================================================================

func TestParseLogLevel(t *testing.T) {
	// Inputs are the values accepted for logging.level in the settings,
	// plus what the --log-level flag may receive.
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"Error", LogLevelError},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected []string
	}{
		{LogLevelDebug, []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"}},
		{LogLevelInfo, []string{"[INFO]", "[WARN]", "[ERROR]"}},
		{LogLevelWarn, []string{"[WARN]", "[ERROR]"}},
		{LogLevelError, []string{"[ERROR]"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := fixedLogger(&buf, tt.level)
			l.Debug("history: captured checkpoint (2 entries)")
			l.Info("settings changed: settings.toml (reloaded=false)")
			l.Warn("history: dropping snapshot")
			l.Error("engine: font face: unknown family")

			lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			if len(lines) != len(tt.expected) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.expected), len(lines), buf.String())
			}
			for i, want := range tt.expected {
				if !strings.Contains(lines[i], want) {
					t.Errorf("expected %s in line %d, got %q", want, i, lines[i])
				}
			}
		})
	}
}

// ============================================================================
// Format
// ============================================================================

func TestLogLine(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LogLevelInfo)

	l.WithComponent("engine").Warn("history: capture failed: %v", "document is not valid JSON")

	expected := "2024-01-02T03:04:05.000 [WARN] quire: history: capture failed: document is not valid JSON {component=engine}\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestLogLineWithoutPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &buf})
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Info("reflowed %d pages", 3)

	if expected := "2024-01-02T03:04:05.000 [INFO] reflowed 3 pages\n"; buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestLogComponentError(t *testing.T) {
	var buf bytes.Buffer
	app := &Application{logger: fixedLogger(&buf, LogLevelInfo)}

	app.logComponentError("config", config.ErrClosed)
	app.logComponentError("config", nil)

	expected := "2024-01-02T03:04:05.000 [ERROR] quire: config: settings store closed {component=config}\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

// ============================================================================
// Component loggers
// ============================================================================

func TestComponentLoggersFollowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LogLevelInfo)
	engineLog := l.WithComponent("engine")
	configLog := l.WithComponent("config")

	engineLog.Debug("before")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}

	l.SetLevel(LogLevelDebug)
	engineLog.Debug("history: captured checkpoint")
	configLog.Debug("watch: reloaded")
	out := buf.String()
	if !strings.Contains(out, "{component=engine}") || !strings.Contains(out, "{component=config}") {
		t.Errorf("expected both components to log at debug, got %q", out)
	}
	if engineLog.Level() != LogLevelDebug {
		t.Errorf("expected DEBUG, got %s", engineLog.Level())
	}
}

func TestSettingsChangeSetsLogLevel(t *testing.T) {
	app, logs := newTestApp(t, filepath.Join(t.TempDir(), "settings.toml"), "hello")

	if err := app.UpdateSettings(func(s *config.Settings) { s.Logging.Level = "debug" }); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if app.Logger().Level() != LogLevelDebug {
		t.Fatalf("expected DEBUG, got %s", app.Logger().Level())
	}

	e := app.Engine()
	if _, err := e.InsertText(e.Selection(), " world"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	e.ForceCheckpoint()
	if !strings.Contains(logs.String(), "captured checkpoint") || !strings.Contains(logs.String(), "component=engine") {
		t.Errorf("expected engine debug lines, got %q", logs.String())
	}
}
