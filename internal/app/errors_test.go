package app

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/event/events"
)

// ============================================================================
// Operation errors
// ============================================================================

func TestOperationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
		target   error
	}{
		{
			name:     "empty input file",
			err:      NewOperationError("paginate", "notes.txt", ErrNoInput),
			expected: "paginate notes.txt: no input text",
			target:   ErrNoInput,
		},
		{
			name:     "missing input file",
			err:      NewOperationError("read", "missing.txt", fs.ErrNotExist),
			expected: "read missing.txt: file does not exist",
			target:   fs.ErrNotExist,
		},
		{
			name:     "settings without a path",
			err:      NewOperationError("update-settings", "", config.ErrClosed),
			expected: "update-settings: settings store closed",
			target:   config.ErrClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("expected the error to match %v", tt.target)
			}
		})
	}
}

func TestUpdateSettingsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	app, _ := newTestApp(t, path, "")

	err := app.UpdateSettings(func(s *config.Settings) {
		s.Page.Margins.Top = 2000
	})
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OperationError, got %T", err)
	}
	if opErr.Op != "update-settings" || opErr.Path != path {
		t.Errorf("expected update-settings on %s, got %s on %s", path, opErr.Op, opErr.Path)
	}
	if !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "update-settings "+path+": ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// ============================================================================
// Component errors
// ============================================================================

func TestComponentError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ComponentError
		expected string
	}{
		{"config close", NewComponentError("config", "close", config.ErrClosed), "config: close: settings store closed"},
		{"engine without action", NewComponentError("engine", "", ErrClosed), "engine: application closed"},
		{"settings applied to engine", NewComponentError("engine", "tab stops", errors.New("tab width must be positive")), "engine: tab stops: tab width must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if errors.Unwrap(tt.err) != tt.err.Err {
				t.Error("expected Unwrap to return the cause")
			}
		})
	}
}

func TestInitErrorNamesComponent(t *testing.T) {
	_, err := New(Options{SettingsPath: filepath.Join(t.TempDir(), "settings.ini"), Env: noEnv})
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected *InitError, got %T", err)
	}
	if initErr.Component != "config" {
		t.Errorf("expected component config, got %s", initErr.Component)
	}
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, config.ErrUnsupportedFormat) {
		t.Errorf("expected ErrInitialization wrapping ErrUnsupportedFormat, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "init config: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// ============================================================================
// Handler panics
// ============================================================================

func TestHandlerPanicError(t *testing.T) {
	var got *HandlerPanicError
	bus := event.NewBus(event.WithPanicHandler(func(evt, r any) {
		got = newHandlerPanicError(evt, r, debug.Stack())
	}))
	_, err := bus.SubscribeFunc(events.TopicSettingsChanged, func(context.Context, any) error {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	evt := event.NewEvent(events.TopicSettingsChanged, events.SettingsChanged{Path: "settings.toml"}, eventSource)
	_ = bus.Publish(context.Background(), evt)

	if got == nil {
		t.Fatal("expected the panic handler to run")
	}
	if got.Topic != "settings.changed" {
		t.Errorf("expected topic settings.changed, got %q", got.Topic)
	}
	if got.Error() != "settings.changed handler panic: boom" {
		t.Errorf("unexpected message %q", got.Error())
	}
	if got.Stack == "" {
		t.Error("expected a stack trace")
	}

	if msg := newHandlerPanicError("not an event", "boom", nil).Error(); msg != "handler panic: boom" {
		t.Errorf("expected %q, got %q", "handler panic: boom", msg)
	}
}
