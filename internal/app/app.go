// Package app wires the quire components together: the settings store,
// the measurement surface, the editing engine and the notification bus.
// It applies settings changes to the running engine and keeps metrics of
// what the engine publishes.
package app

import (
	"context"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/event/events"
)

// eventSource is the Metadata.Source of notifications published by the
// application.
const eventSource = "app"

// Application owns one engine and the settings that configure it.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	logger  *Logger
	bus     *event.Bus
	config  *config.Config
	metrics *Metrics
	subs    *subscriptionManager

	// Editor
	engine   *engine.Engine
	measurer string

	settingsPath string
	closed       atomic.Bool

	opts Options
}

// Options configures the application.
type Options struct {
	// SettingsPath is the settings file or database. Empty selects
	// config.DefaultPath().
	SettingsPath string

	// LogLevel overrides the level from the settings when set.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Measurer overrides font.measurer from the settings when set.
	Measurer string

	// Text is the initial document content.
	Text string

	// Watch reloads the settings when the file changes on disk.
	Watch bool

	// Env looks up environment overrides. Defaults to os.LookupEnv.
	Env func(string) (string, bool)

	// EngineOptions are appended after the options derived from settings.
	EngineOptions []engine.Option
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}
	app.subs = newSubscriptionManager(app)

	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Engine returns the editing engine.
func (app *Application) Engine() *engine.Engine {
	return app.engine
}

// Bus returns the bus carrying engine and settings notifications.
func (app *Application) Bus() *event.Bus {
	return app.bus
}

// Settings returns the effective settings.
func (app *Application) Settings() config.Settings {
	return app.config.Settings()
}

// SettingsPath returns the location of the settings store.
func (app *Application) SettingsPath() string {
	return app.settingsPath
}

// UpdateSettings applies fn to the stored settings and saves them. The
// running engine picks up the change before UpdateSettings returns.
func (app *Application) UpdateSettings(fn func(*config.Settings)) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if err := app.config.Update(fn); err != nil {
		return NewOperationError("update-settings", app.settingsPath, err)
	}
	return nil
}

// applySettings is the config change handler. It pushes the differences
// between old and current into the engine, then announces the change.
func (app *Application) applySettings(old, current config.Settings, reloaded bool) {
	if app.closed.Load() {
		return
	}
	timer := StartTimer()
	defer func() { app.metrics.RecordOperation(timer.Elapsed()) }()

	if app.opts.LogLevel == "" && old.Logging.Level != current.Logging.Level {
		app.logger.SetLevel(ParseLogLevel(current.Logging.Level))
	}

	var errs []error
	check := func(what string, err error) {
		if err != nil {
			errs = append(errs, NewComponentError("engine", what, err))
		}
	}
	e := app.engine
	if !reflect.DeepEqual(old.Page, current.Page) {
		check("page geometry", e.SetDefaultGeometry(current.Page.Geometry()))
	}
	if !reflect.DeepEqual(old.Tabs, current.Tabs) {
		check("tab stops", e.SetTabStops(current.Tabs.Stops, current.Tabs.Width))
	}
	if app.opts.Measurer == "" && old.Font.Measurer != current.Font.Measurer {
		m, err := measure.ByName(current.Font.Measurer)
		if err == nil {
			err = e.SetMeasurer(m)
		}
		if err == nil {
			app.mu.Lock()
			app.measurer = current.Font.Measurer
			app.mu.Unlock()
		}
		check("measurer "+current.Font.Measurer, err)
	}
	if old.Font.Family != current.Font.Family || old.Font.Size != current.Font.Size {
		check("font face", e.SetFace(faceOf(current)))
	}
	if old.History.MaxEntries != current.History.MaxEntries && current.History.MaxEntries > 0 {
		e.SetMaxUndoEntries(current.History.MaxEntries)
	}

	for _, err := range errs {
		app.logger.Error("%v", err)
	}

	evt := event.NewEvent(events.TopicSettingsChanged, events.SettingsChanged{
		Path:     app.settingsPath,
		Reloaded: reloaded,
	}, eventSource)
	if err := app.bus.Publish(context.Background(), evt); err != nil {
		app.logComponentError("bus", err)
	}
}

// Measurer returns the name of the active measurement surface.
func (app *Application) Measurer() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.measurer
}

// Close stops watching the settings, drops the subscriptions and closes
// the store. It is safe to call more than once.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.subs.unsubscribeAll()

	if app.config != nil {
		if err := app.config.Close(); err != nil {
			return NewComponentError("config", "close", err)
		}
	}
	return nil
}

func faceOf(s config.Settings) measure.Face {
	return measure.Face{Family: s.Font.Family, Size: s.Font.Size}.WithDefaults()
}
