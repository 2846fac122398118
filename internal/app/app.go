package app

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/replstorm/internal/config"
	"github.com/dshills/replstorm/internal/config/loader"
	"github.com/dshills/replstorm/internal/config/watcher"
	"github.com/dshills/replstorm/internal/console"
	"github.com/dshills/replstorm/internal/dispatcher"
	"github.com/dshills/replstorm/internal/dispatcher/handler"
	"github.com/dshills/replstorm/internal/dispatcher/handlers/repl"
	"github.com/dshills/replstorm/internal/driver"
	"github.com/dshills/replstorm/internal/event"
	"github.com/dshills/replstorm/internal/filter"
	"github.com/dshills/replstorm/internal/prompt"
	"github.com/dshills/replstorm/internal/session"
)

// ConsoleDriverID identifies the console's driver pairing.
const ConsoleDriverID = "console"

// DefaultShutdownTimeout bounds how long Shutdown waits for sessions.
const DefaultShutdownTimeout = 5 * time.Second

// Application wires configuration, sessions, dispatch, and the console
// into one lifecycle.
type Application struct {
	mu      sync.Mutex
	running bool

	cfg  *config.Config
	defs map[string]config.Definition

	logger     *Logger
	bus        *event.Bus
	filters    *filter.List
	scripts    []*filter.Script
	classifier *prompt.Classifier
	registry   *session.Registry
	drivers    *driver.Set
	dispatcher *dispatcher.Dispatcher
	console    *console.Console
	watcher    *watcher.Watcher

	headless    bool
	watchConfig bool
	screen      tcell.Screen
	sessionName string
	replName    string
}

// Option configures an Application.
type Option func(*Application)

// WithConfig supplies a pre-built configuration.
func WithConfig(cfg *config.Config) Option {
	return func(app *Application) {
		app.cfg = cfg
	}
}

// WithLogger supplies the application logger.
func WithLogger(logger *Logger) Option {
	return func(app *Application) {
		app.logger = logger
	}
}

// WithScreen supplies the tcell screen. Tests pass a SimulationScreen.
func WithScreen(screen tcell.Screen) Option {
	return func(app *Application) {
		app.screen = screen
	}
}

// WithHeadless disables the console display.
func WithHeadless(headless bool) Option {
	return func(app *Application) {
		app.headless = headless
	}
}

// WithConfigWatch enables live configuration reload.
func WithConfigWatch(enable bool) Option {
	return func(app *Application) {
		app.watchConfig = enable
	}
}

// WithSessionName overrides the configured default session name.
func WithSessionName(name string) Option {
	return func(app *Application) {
		app.sessionName = name
	}
}

// WithRepl overrides the configured REPL definition name.
func WithRepl(name string) Option {
	return func(app *Application) {
		app.replName = name
	}
}

// New builds the application. Every component is constructed but no
// session process is spawned until the first dispatch resolves one.
func New(opts ...Option) (*Application, error) {
	app := &Application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		app.cfg = config.New()
		if err := app.cfg.Load(); err != nil {
			return nil, NewInitError("config", err)
		}
	}
	if app.logger == nil {
		logCfg := DefaultLoggerConfig()
		logCfg.Level = ParseLogLevel(app.cfg.Logging().Level)
		app.logger = NewLogger(logCfg)
	}

	if err := app.initDefinitions(); err != nil {
		return nil, err
	}
	if err := app.initFilters(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		return nil, err
	}
	app.initDispatch()

	if !app.headless {
		if err := app.initConsole(); err != nil {
			return nil, err
		}
	}
	if app.watchConfig {
		if err := app.initWatcher(); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// initDefinitions loads repls.yml and resolves the selected definition
// into a prompt classifier.
func (app *Application) initDefinitions() error {
	defs, err := config.LoadDefinitions(loader.DefaultFS(), app.cfg.DefinitionsPath())
	if err != nil {
		return NewInitError("repl definitions", err)
	}
	app.defs = defs

	replCfg := app.cfg.Repl()
	if app.replName != "" {
		replCfg.Definition = app.replName
	}
	def, err := config.ResolveDefinition(defs, replCfg)
	if err != nil {
		return NewInitError("repl definition", err)
	}

	classifier, err := prompt.NewClassifier(def.PromptRules())
	if err != nil {
		return NewInitError("prompt classifier", err)
	}
	app.classifier = classifier
	return nil
}

// initFilters builds the filter list: built-ins first, then configured
// Lua scripts in order.
func (app *Application) initFilters() error {
	app.filters = filter.NewList(filter.Defaults()...)

	for _, path := range app.cfg.Filter().Scripts {
		script, err := filter.LoadScript(path)
		if err != nil {
			return NewInitError("filter script", err)
		}
		app.scripts = append(app.scripts, script)
		app.filters.Register(script.Func())
	}
	return nil
}

// initSessions builds the event bus and the session registry.
func (app *Application) initSessions() error {
	app.bus = event.NewBus()

	spawn, err := app.spawnConfig()
	if err != nil {
		return NewInitError("repl definition", err)
	}

	defaultName := app.cfg.Session().DefaultName
	if app.sessionName != "" {
		defaultName = app.sessionName
	}

	spawn.DefaultName = defaultName
	spawn.Filters = app.filters
	spawn.EventBus = busPublisher{bus: app.bus, source: "registry"}
	spawn.OnOutput = func(name, text string) {
		app.mu.Lock()
		cons := app.console
		app.mu.Unlock()
		if cons != nil {
			cons.Feed(name, text)
		}
	}

	app.registry = session.NewRegistry(spawn)
	return nil
}

// spawnConfig derives the registry's spawn settings from the current
// configuration view and definition set.
func (app *Application) spawnConfig() (session.RegistryConfig, error) {
	replCfg := app.cfg.Repl()
	if app.replName != "" {
		replCfg.Definition = app.replName
	}

	app.mu.Lock()
	defs := app.defs
	app.mu.Unlock()

	def, err := config.ResolveDefinition(defs, replCfg)
	if err != nil {
		return session.RegistryConfig{}, err
	}

	sessCfg := app.cfg.Session()
	return session.RegistryConfig{
		Command:     def.Command,
		Args:        def.Args,
		Env:         def.Env,
		Term:        def.Term,
		Cols:        sessCfg.Cols,
		Rows:        sessCfg.Rows,
		WindowBytes: sessCfg.WindowBytes,
		Scrollback:  sessCfg.Scrollback,
		KillGrace:   sessCfg.KillGrace,
	}, nil
}

// initDispatch builds the dispatcher and registers the repl namespace.
func (app *Application) initDispatch() {
	app.drivers = driver.NewSet()
	app.dispatcher = dispatcher.NewWithDefaults()
	app.dispatcher.RegisterNamespace(repl.New(app.registry, app.drivers, app.classifier))
	app.dispatcher.SetDefaultDriverID(ConsoleDriverID)
}

// initConsole builds the display surface and points dispatch at it.
func (app *Application) initConsole() error {
	if app.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return NewInitError("screen", err)
		}
		app.screen = screen
	}

	app.console = console.New(app.screen, app.registry, app.classifier,
		console.WithStatusLine(app.cfg.Console().StatusLine),
		console.WithActionFunc(func(action string) {
			app.dispatcher.Dispatch(handler.NewAction(action))
		}),
	)
	app.dispatcher.SetDisplay(app.console)
	return nil
}

// initWatcher watches the config files and reloads settings on change.
func (app *Application) initWatcher() error {
	w, err := watcher.New()
	if err != nil {
		return NewInitError("config watcher", err)
	}
	if err := w.Watch(app.cfg.SettingsPath()); err != nil {
		w.Close()
		return NewInitError("config watcher", err)
	}
	if err := w.Watch(app.cfg.DefinitionsPath()); err != nil {
		w.Close()
		return NewInitError("config watcher", err)
	}

	w.OnChange(func(path string) {
		app.reloadConfig(path)
	})
	app.watcher = w
	return nil
}

// reloadConfig re-merges settings and definitions after a config file
// change and applies the fresh spawn settings to the registry. Running
// sessions keep their spawn-time settings; sessions created after the
// reload use the new ones.
func (app *Application) reloadConfig(path string) {
	if err := app.cfg.Load(); err != nil {
		app.Logger().Error("config reload failed: %v", err)
		return
	}

	defs, err := config.LoadDefinitions(loader.DefaultFS(), app.cfg.DefinitionsPath())
	if err != nil {
		app.Logger().Error("repl definitions reload failed: %v", err)
		return
	}
	app.mu.Lock()
	app.defs = defs
	app.mu.Unlock()

	spawn, err := app.spawnConfig()
	if err != nil {
		app.Logger().Error("config reload failed: %v", err)
		return
	}
	app.registry.UpdateSpawnConfig(spawn)

	app.Logger().SetLevel(ParseLogLevel(app.cfg.Logging().Level))
	app.Logger().Info("configuration reloaded: %s", path)

	app.bus.Publish(event.New("config.reloaded", map[string]any{
		"path": path,
	}))
}

// Dispatch executes a named action with the application's defaults.
func (app *Application) Dispatch(name string, args map[string]any) handler.Result {
	action := handler.Action{Name: name, Args: args}
	return app.dispatcher.Dispatch(action)
}

// Dispatcher returns the action dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Registry returns the session registry.
func (app *Application) Registry() *session.Registry {
	return app.registry
}

// EventBus returns the application event bus.
func (app *Application) EventBus() *event.Bus {
	return app.bus
}

// Run runs the console event loop until quit. In headless mode Run
// returns immediately.
func (app *Application) Run() error {
	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return ErrAlreadyRunning
	}
	app.running = true
	cons := app.console
	app.mu.Unlock()

	if cons == nil {
		return nil
	}

	if err := cons.Init(); err != nil {
		return NewInitError("console", err)
	}
	return cons.Run()
}

// Shutdown stops all components, force-killing sessions that outlive
// the timeout.
func (app *Application) Shutdown(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	app.mu.Lock()
	w := app.watcher
	cons := app.console
	app.console = nil
	app.running = false
	app.mu.Unlock()

	if w != nil {
		w.Close()
	}
	if cons != nil {
		cons.Stop()
	}

	app.registry.Shutdown(timeout)

	for _, script := range app.scripts {
		_ = script.Close()
	}
	app.bus.Close()

	app.Logger().Info("shutdown complete")
}
