package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/napflow/internal/alarm"
	"github.com/hammamikhairi/napflow/internal/config"
	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/engine"
	"github.com/hammamikhairi/napflow/internal/logger"
	"github.com/hammamikhairi/napflow/internal/storage"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logFile    string
	store      string
	identity   string
	verbose    bool
	quiet      bool
	noSound    bool
}

// env holds everything a command needs once configuration is loaded.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	gateway domain.Gateway
	closers []func() error
}

// loadConfig loads the config file and environment, then applies the
// flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.store != "" {
		cfg.Store.Backend = flags.store
	}
	if flags.identity != "" {
		cfg.Identity = flags.identity
	}
	if flags.logFile != "" {
		cfg.Logging.File = flags.logFile
	}
	if flags.verbose {
		cfg.Logging.Level = "verbose"
	}
	if flags.quiet {
		cfg.Logging.Level = "off"
	}
	if flags.noSound {
		cfg.Alarm.Sound = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads configuration, opens the log output and connects the
// configured store.
func setup(flags *globalFlags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	logOut, closeLog := openLogOutput(cfg.Logging.File)
	if closeLog != nil {
		e.closers = append(e.closers, closeLog)
	}
	// Route the standard library logger to the same place so nothing
	// spills onto the terminal UI.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)
	e.log = logger.New(cfg.LogLevel(), logOut)

	gw, closeGW, err := openGateway(cfg, e.log)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.gateway = gw
	if closeGW != nil {
		e.closers = append(e.closers, closeGW)
	}

	e.log.Info("napflow starting (identity=%s, store=%s)", cfg.Identity, cfg.Store.Backend)
	return e, nil
}

// Close releases the store and the log file, in reverse order of opening.
func (e *env) Close() {
	if e.log != nil {
		_ = e.log.Sync()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && e.log != nil {
			e.log.Warn("closing: %v", err)
		}
	}
	e.closers = nil
}

// newEngine builds an engine on top of the configured store.
func (e *env) newEngine(a engine.Alarm, opts ...engine.Option) (*engine.Engine, error) {
	napCfg, err := e.cfg.NapConfig()
	if err != nil {
		return nil, err
	}
	base := []engine.Option{
		engine.WithIdentity(e.cfg.Identity),
		engine.WithLevels(e.cfg.Levels),
		engine.WithCountdown(e.cfg.CountdownStrategy()),
		engine.WithConfig(napCfg),
	}
	return engine.New(e.gateway, a, e.log, append(base, opts...)...), nil
}

// offlineEngine is an engine for commands that never run a countdown.
func (e *env) offlineEngine() (*engine.Engine, error) {
	return e.newEngine(alarm.NewRepeater(alarm.NewChannel(nil), e.log))
}

// newAlarm builds the alarm repeater: the tone player when sound is on and
// an audio device is available, plus the given notifiers.
func (e *env) newAlarm(notifiers ...domain.Notifier) (*alarm.Repeater, error) {
	interval, err := e.cfg.AlarmInterval()
	if err != nil {
		return nil, err
	}

	var sound domain.Sounder
	if e.cfg.Alarm.Sound {
		tone, err := e.cfg.Tone()
		if err != nil {
			return nil, err
		}
		player, err := alarm.NewTonePlayer(tone, e.log)
		if err != nil {
			e.log.Warn("audio unavailable, alarm will be silent: %v", err)
		} else {
			sound = player
		}
	}

	channel := alarm.NewChannel(sound, notifiers...)
	return alarm.NewRepeater(channel, e.log,
		alarm.WithInterval(interval),
		alarm.WithMessage(e.cfg.Alarm.Title, e.cfg.Alarm.Body),
	), nil
}

// openGateway connects the configured backend. The returned close func
// is nil for backends that hold no resources.
func openGateway(cfg *config.Config, log *logger.Logger) (domain.Gateway, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(log), nil, nil
	case config.BackendFile:
		s, err := storage.NewFileStore(cfg.Store.DataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.BackendSQLite:
		s, err := storage.OpenSQLite(cfg.DatabasePath(), log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		s, err := storage.OpenPostgres(cfg.Store.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// openLogOutput opens path for appending. "stderr" or an empty path logs
// to the console; if the file cannot be opened logging falls back to
// stderr with a warning.
func openLogOutput(path string) (io.Writer, func() error) {
	if path == "" || path == "stderr" {
		return os.Stderr, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr, nil
	}
	return f, f.Close
}
