// Package app wires configuration, logging, the process supervisor and
// terminal emulators into sessions. Everything is owned by an App value;
// there is no package-level state.
package app

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/ptyterm/internal/config"
	"github.com/dshills/ptyterm/internal/logging"
	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

// shutdownSlack is added to the grace period when bounding Close.
const shutdownSlack = time.Second

// Options configures the App.
type Options struct {
	// ConfigPath is the path to the configuration file. When empty the
	// per-user default is used if it exists.
	ConfigPath string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Backend overrides the configured emulator backend.
	Backend string

	// LogOutput receives logs when no log file is configured. Nil
	// discards them.
	LogOutput io.Writer

	// Environ is the environment used for overrides and children.
	// Nil means os.Environ().
	Environ []string

	// Watch enables live reload of the configuration file.
	Watch bool

	// Logger, when set, is used instead of building one from the config.
	Logger *zap.Logger
}

// App owns the long-lived components of a ptyterm instance.
type App struct {
	mu       sync.Mutex
	cfg      *config.Config
	sessions map[string]*Session

	opts       Options
	configPath string
	environ    []string

	logger     *zap.Logger
	closeLog   func() error
	supervisor *process.Supervisor
	watcher    *config.Watcher

	closed atomic.Bool
}

// New resolves the configuration and builds the App.
func New(opts Options) (*App, error) {
	app := &App{
		opts:     opts,
		environ:  opts.Environ,
		sessions: make(map[string]*Session),
	}
	if app.environ == nil {
		app.environ = os.Environ()
	}

	cfg, path, err := app.resolveConfig()
	if err != nil {
		return nil, &ComponentError{Component: "config", Action: "load", Err: err}
	}
	app.cfg = cfg
	app.configPath = path

	if opts.Logger != nil {
		app.logger = opts.Logger
		app.closeLog = func() error { return nil }
	} else {
		app.logger, app.closeLog, err = logging.New(cfg.Log, opts.LogOutput)
		if err != nil {
			return nil, &ComponentError{Component: "logging", Action: "init", Err: err}
		}
	}

	app.supervisor = process.NewSupervisor(
		process.WithMaxProcesses(cfg.Process.MaxProcesses),
		process.WithGracePeriod(cfg.Process.GracePeriod.Std()),
		process.WithLogger(logging.Component(app.logger, "process")),
	)

	if opts.Watch && path != "" {
		app.watcher, err = config.NewWatcher(path, app.applyConfig,
			config.WithEnviron(func() []string { return app.environ }),
			config.WithWatcherLogger(logging.Component(app.logger, "config")),
		)
		if err != nil {
			_ = app.closeLog()
			return nil, &ComponentError{Component: "config", Action: "watch", Err: err}
		}
	}

	app.logger.Debug("app started",
		zap.String("config", path),
		zap.String("backend", cfg.Terminal.Backend),
	)
	return app, nil
}

// resolveConfig loads the config file and applies environment and
// option overrides. It returns the path actually loaded.
func (app *App) resolveConfig() (*config.Config, string, error) {
	path := app.opts.ConfigPath
	if path == "" {
		if def, err := config.DefaultPath(); err == nil {
			if _, err := os.Stat(def); err == nil {
				path = def
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, "", err
			}
		}
	}

	cfg, err := config.Resolve(path, app.environ)
	if err != nil {
		return nil, "", err
	}
	if err := app.applyOverrides(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func (app *App) applyOverrides(cfg *config.Config) error {
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.Backend != "" {
		cfg.Terminal.Backend = app.opts.Backend
	}
	return cfg.Validate()
}

// applyConfig installs a reloaded configuration. Only the theme takes
// effect on open sessions; other settings apply to new sessions.
func (app *App) applyConfig(cfg *config.Config) {
	if err := app.applyOverrides(cfg); err != nil {
		app.logger.Warn("ignoring reloaded config", zap.Error(err))
		return
	}
	palette, err := cfg.Theme.ToPalette()
	if err != nil {
		app.logger.Warn("ignoring reloaded config", zap.Error(err))
		return
	}

	app.mu.Lock()
	app.cfg = cfg
	for _, s := range app.sessions {
		s.setPalette(palette)
	}
	app.mu.Unlock()
}

// Config returns a copy of the current configuration.
func (app *App) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg.Clone()
}

// ConfigPath returns the config file in use, or "" for built-in defaults.
func (app *App) ConfigPath() string {
	return app.configPath
}

// Logger returns the root logger.
func (app *App) Logger() *zap.Logger {
	return app.logger
}

// Supervisor returns the process supervisor.
func (app *App) Supervisor() *process.Supervisor {
	return app.supervisor
}

// SessionCount returns the number of open sessions.
func (app *App) SessionCount() int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return len(app.sessions)
}

// OpenSession launches a child and attaches a fresh emulator to it.
func (app *App) OpenSession(req SessionRequest) (*Session, error) {
	if app.closed.Load() {
		return nil, ErrClosed
	}
	cfg := app.Config()

	cols, rows := req.Cols, req.Rows
	if cols <= 0 {
		cols = cfg.Terminal.Cols
	}
	if rows <= 0 {
		rows = cfg.Terminal.Rows
	}
	if cols <= 0 {
		cols = process.DefaultCols
	}
	if rows <= 0 {
		rows = process.DefaultRows
	}
	dir := req.Dir
	if dir == "" {
		dir = cfg.Shell.WorkDir
	}

	palette, err := cfg.Theme.ToPalette()
	if err != nil {
		return nil, err
	}

	argv, env := ResolveLaunch(cfg.Shell, req.Argv, app.environ)
	handle, err := app.supervisor.Launch(process.Options{
		Argv:         argv,
		Env:          env,
		Dir:          dir,
		Cols:         cols,
		Rows:         rows,
		GracePeriod:  cfg.Process.GracePeriod.Std(),
		PollInterval: cfg.Process.PollInterval.Std(),
	})
	if err != nil {
		return nil, err
	}

	logger := logging.Component(app.logger, "session").With(zap.String("session", handle.ID()))
	emu, err := terminal.NewEmulator(cfg.Terminal.Backend, cols, rows,
		terminal.WithScrollback(cfg.Terminal.Scrollback),
		terminal.WithTabWidth(cfg.Terminal.TabWidth),
		terminal.WithPalette(palette),
		terminal.WithResponder(handle),
		terminal.WithUnknownSequenceHandler(func(seq string) {
			logger.Debug("unhandled escape sequence", zap.String("sequence", seq))
		}),
	)
	if err != nil {
		_ = app.supervisor.Terminate(handle.ID())
		return nil, &ComponentError{Component: "emulator", Action: "create", Err: err}
	}

	s := &Session{
		app:      app,
		handle:   handle,
		emu:      emu,
		logger:   logger,
		buf:      make([]byte, readChunk),
		maxBytes: cfg.UI.MaxBytesPerFrame,
	}

	app.mu.Lock()
	app.sessions[s.ID()] = s
	app.mu.Unlock()

	logger.Info("session opened",
		zap.Strings("argv", argv),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
		zap.String("backend", cfg.Terminal.Backend),
	)
	return s, nil
}

func (app *App) closeSession(s *Session) error {
	app.mu.Lock()
	delete(app.sessions, s.ID())
	app.mu.Unlock()

	err := app.supervisor.Terminate(s.ID())
	if errors.Is(err, process.ErrNotFound) {
		// Already dropped by Shutdown or Prune.
		err = s.handle.Terminate()
	}
	s.logger.Info("session closed", zap.Int("exit_status", s.handle.ExitStatus()))
	return err
}

// Close stops the config watcher, terminates every session and flushes
// the logger. It is bounded by the grace period plus a small slack.
func (app *App) Close() error {
	if app.closed.Swap(true) {
		return nil
	}

	var errs []error
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			errs = append(errs, &ComponentError{Component: "config", Action: "stop watcher", Err: err})
		}
	}

	app.mu.Lock()
	grace := app.cfg.Process.GracePeriod.Std()
	app.sessions = make(map[string]*Session)
	app.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), grace+shutdownSlack)
	defer cancel()
	if err := app.supervisor.Shutdown(ctx); err != nil {
		errs = append(errs, &ComponentError{Component: "process", Action: "shutdown", Err: err})
	}

	app.logger.Debug("app closed")
	if err := app.closeLog(); err != nil {
		errs = append(errs, &ComponentError{Component: "logging", Action: "close", Err: err})
	}
	return errors.Join(errs...)
}
