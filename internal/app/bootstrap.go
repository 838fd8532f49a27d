package app

import (
	"runtime/debug"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/event"
)

// bootstrapper handles ordered initialization of application components.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"logger", b.initLogger},
		{"config", b.initConfig},
		{"bus", b.initEventBus},
		{"engine", b.initEngine},
		{"subscriptions", b.initSubscriptions},
		{"watcher", b.initWatcher},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			b.cleanup()
			return &InitError{Component: step.name, Err: err}
		}
		b.initOrder = append(b.initOrder, step.name)
	}
	b.app.Logger().Debug("initialized %v", b.initOrder)
	return nil
}

// initLogger creates the application logger. The level from the settings
// is applied once they are loaded.
func (b *bootstrapper) initLogger() error {
	cfg := DefaultLoggerConfig()
	if b.opts.LogOutput != nil {
		cfg.Output = b.opts.LogOutput
	}
	if b.opts.LogLevel != "" {
		cfg.Level = ParseLogLevel(b.opts.LogLevel)
	}
	b.app.logger = NewLogger(cfg)
	return nil
}

// initConfig opens the settings store and loads it. A store with nothing
// saved yet yields the defaults.
func (b *bootstrapper) initConfig() error {
	path := b.opts.SettingsPath
	if path == "" {
		path = config.DefaultPath()
	}
	store, err := config.Open(path)
	if err != nil {
		return err
	}

	opts := []config.Option{config.WithLogger(b.app.logger.WithComponent("config"))}
	if b.opts.Env != nil {
		opts = append(opts, config.WithEnv(b.opts.Env))
	}
	cfg := config.New(store, opts...)
	if err := cfg.Load(); err != nil {
		_ = cfg.Close()
		return err
	}
	b.app.config = cfg
	b.app.settingsPath = path

	if b.opts.LogLevel == "" {
		b.app.logger.SetLevel(ParseLogLevel(cfg.Settings().Logging.Level))
	}
	return nil
}

// initEventBus creates the notification bus. Handler panics are logged and
// do not reach the engine.
func (b *bootstrapper) initEventBus() error {
	log := b.app.logger.WithComponent("bus")
	b.app.bus = event.NewBus(event.WithPanicHandler(func(evt, r any) {
		err := newHandlerPanicError(evt, r, debug.Stack())
		log.Error("%v", err)
		log.Debug("%s", err.Stack)
	}))
	return nil
}

// initEngine creates the measurer and the engine from the settings.
func (b *bootstrapper) initEngine() error {
	s := b.app.config.Settings()

	name := s.Font.Measurer
	if b.opts.Measurer != "" {
		name = b.opts.Measurer
	}
	m, err := measure.ByName(name)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithGeometry(s.Page.Geometry()),
		engine.WithMeasurer(m),
		engine.WithFace(faceOf(s)),
		engine.WithTabStops(s.Tabs.Stops, s.Tabs.Width),
		engine.WithCheckpointDelay(s.History.Delay()),
		engine.WithMaxUndoEntries(s.History.MaxEntries),
		engine.WithLogger(b.app.logger.WithComponent("engine")),
		engine.WithBus(b.app.bus),
		engine.WithText(b.opts.Text),
	}
	e, err := engine.New(append(opts, b.opts.EngineOptions...)...)
	if err != nil {
		return err
	}
	b.app.engine = e
	b.app.measurer = name
	return nil
}

// initSubscriptions registers the metrics subscriptions and the settings
// change handler.
func (b *bootstrapper) initSubscriptions() error {
	if err := b.app.subs.setupSubscriptions(); err != nil {
		return err
	}
	b.app.config.OnChange(b.app.applySettings)
	return nil
}

// initWatcher starts watching the settings file when requested.
func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch {
		return nil
	}
	return b.app.config.Watch()
}

// cleanup releases components in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent releases a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "subscriptions":
		b.app.subs.unsubscribeAll()
	case "engine":
		b.app.engine = nil
	case "bus":
		b.app.bus = nil
	case "config":
		if b.app.config != nil {
			if err := b.app.config.Close(); err != nil {
				b.app.logComponentError("config", err)
			}
			b.app.config = nil
		}
	}
}

// InitError reports the component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Is matches ErrInitialization.
func (e *InitError) Is(target error) bool {
	return target == ErrInitialization
}
