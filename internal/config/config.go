package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/dshills/quire/internal/config/watcher"
)

// Logger receives reload diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// ChangeHandler is called after the effective settings change. reloaded is
// true when the change came from an external edit of the store.
type ChangeHandler func(old, current Settings, reloaded bool)

// Config holds the effective settings: defaults, then the store, then the
// environment.
type Config struct {
	mu       sync.RWMutex
	store    Store
	base     Settings
	current  Settings
	handlers []ChangeHandler

	env      func(string) (string, bool)
	log      Logger
	debounce time.Duration
	watcher  *watcher.Watcher
}

// Option configures a Config.
type Option func(*Config)

// WithLogger sets the logger for reload diagnostics.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEnv sets the environment lookup. Pass a function returning false to
// disable environment overrides.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(c *Config) {
		if lookup != nil {
			c.env = lookup
		}
	}
}

// WithDebounce sets the quiet period the watcher waits before reloading.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// New creates a Config over store. Call Load before reading settings.
func New(store Store, opts ...Option) *Config {
	c := &Config{
		store:    store,
		base:     Defaults(),
		current:  Defaults(),
		env:      os.LookupEnv,
		log:      nopLogger{},
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultPath returns the settings file under the user config directory,
// honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quire", "settings.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "quire", "settings.toml")
}

// resolve layers the environment over base and validates the result.
func (c *Config) resolve(base Settings) (Settings, error) {
	eff := clone(base)
	if err := ApplyEnv(&eff, c.env); err != nil {
		return Settings{}, err
	}
	if err := eff.Validate(); err != nil {
		return Settings{}, err
	}
	return eff, nil
}

// Load reads the store. Settings are left unchanged on error.
func (c *Config) Load() error {
	base, err := c.store.Load()
	if err != nil {
		return err
	}
	eff, err := c.resolve(base)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.base, c.current = base, eff
	c.mu.Unlock()
	return nil
}

// Settings returns a copy of the effective settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.current)
}

// Stored returns a copy of the settings as stored, without environment
// overrides.
func (c *Config) Stored() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.base)
}

// Update applies fn to the stored settings, validates, saves and notifies.
// Nothing changes when validation or saving fails.
func (c *Config) Update(fn func(*Settings)) error {
	c.mu.Lock()
	next := clone(c.base)
	fn(&next)
	eff, err := c.resolve(next)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.store.Save(next); err != nil {
		c.mu.Unlock()
		return err
	}
	old := c.current
	c.base, c.current = next, eff
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	notify(handlers, old, eff, false)
	return nil
}

// OnChange registers a handler for settings changes.
func (c *Config) OnChange(h ChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Watch reloads the store when its file changes. It is a no-op for stores
// that are not files.
func (c *Config) Watch() error {
	fs, ok := c.store.(*FileStore)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	w, err := watcher.New(
		watcher.WithDebounce(c.debounce),
		watcher.WithErrorHandler(func(err error) {
			c.log.Warn("settings watcher: %v", err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Watch(fs.Path()); err != nil {
		w.Close()
		return err
	}
	w.OnChange(c.handleFileChange)
	w.Start()
	c.watcher = w
	return nil
}

// handleFileChange handles file change events from the watcher.
func (c *Config) handleFileChange(ev watcher.Event) {
	c.log.Debug("settings file %s: %s", ev.Op, ev.Path)
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		return
	}
	if err := c.Reload(); err != nil {
		c.log.Warn("settings reload ignored: %v", err)
	}
}

// Reload re-reads the store and notifies handlers when the effective
// settings changed.
func (c *Config) Reload() error {
	base, err := c.store.Load()
	if err != nil {
		return err
	}
	eff, err := c.resolve(base)
	if err != nil {
		return err
	}
	c.mu.Lock()
	old := c.current
	c.base, c.current = base, eff
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	if reflect.DeepEqual(old, eff) {
		return nil
	}
	notify(handlers, old, eff, true)
	return nil
}

func notify(handlers []ChangeHandler, old, current Settings, reloaded bool) {
	for _, h := range handlers {
		h(clone(old), clone(current), reloaded)
	}
}

// Close stops watching and closes the store.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}

func clone(s Settings) Settings {
	if len(s.Tabs.Stops) == 0 {
		s.Tabs.Stops = nil
	}
	s.Tabs.Stops = slices.Clone(s.Tabs.Stops)
	return s
}
