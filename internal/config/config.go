// Package config loads napflow settings from an optional YAML file and
// environment overrides. A .env file, if present, is read into the
// environment first.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/napflow/internal/alarm"
	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/engine"
	"github.com/hammamikhairi/napflow/internal/logger"
	"github.com/hammamikhairi/napflow/internal/reward"
)

// Environment variables that override the file.
const (
	EnvIdentity      = "NAPFLOW_IDENTITY"
	EnvStore         = "NAPFLOW_STORE"
	EnvDataDir       = "NAPFLOW_DATA_DIR"
	EnvDSN           = "NAPFLOW_DSN"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvAlarmInterval = "NAPFLOW_ALARM_INTERVAL"
	EnvSound         = "NAPFLOW_SOUND"
	EnvCountdown     = "NAPFLOW_COUNTDOWN"
	EnvPreset        = "NAPFLOW_PRESET"
	EnvLogLevel      = "NAPFLOW_LOG_LEVEL"
	EnvLogFile       = "NAPFLOW_LOG_FILE"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all napflow configuration.
type Config struct {
	// Identity scopes the stored profile and nap log.
	Identity string `yaml:"identity"`

	Store   StoreConfig   `yaml:"store"`
	Alarm   AlarmConfig   `yaml:"alarm"`
	Logging LoggingConfig `yaml:"logging"`

	// Countdown is "deadline" or "decrement".
	Countdown string `yaml:"countdown"`

	// DefaultPreset is a preset ID or a number of minutes.
	DefaultPreset string `yaml:"default_preset"`

	Levels []reward.Level `yaml:"levels"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, file, sqlite, postgres
	DataDir string `yaml:"data_dir"`
	DSN     string `yaml:"dsn"`
}

// AlarmConfig configures the wake-up alarm.
type AlarmConfig struct {
	Interval  string  `yaml:"interval"`
	Sound     bool    `yaml:"sound"`
	Frequency float64 `yaml:"frequency"`
	Length    string  `yaml:"length"`
	Volume    float64 `yaml:"volume"`
	Title     string  `yaml:"title"`
	Body      string  `yaml:"body"`
}

// LoggingConfig configures the log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // off, normal, verbose
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Identity: "default",
		Store: StoreConfig{
			Backend: BackendSQLite,
			DataDir: defaultDataDir(),
		},
		Alarm: AlarmConfig{
			Interval:  alarm.DefaultInterval.String(),
			Sound:     true,
			Frequency: alarm.DefaultTone.Frequency,
			Length:    alarm.DefaultTone.Length.String(),
			Volume:    alarm.DefaultTone.Volume,
			Title:     alarm.DefaultTitle,
			Body:      alarm.DefaultBody,
		},
		Logging: LoggingConfig{
			Level: "normal",
			File:  "napflow.log",
		},
		Countdown:     engine.CountdownDeadline.String(),
		DefaultPreset: string(domain.SourceFocus),
		Levels:        append([]reward.Level(nil), reward.DefaultLevels...),
	}
}

// Load reads .env and the YAML file at path, then applies environment
// overrides. A missing file yields the defaults. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvIdentity); v != "" {
		c.Identity = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvAlarmInterval); v != "" {
		c.Alarm.Interval = v
	}
	if v := os.Getenv(EnvSound); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSound, err)
		}
		c.Alarm.Sound = on
	}
	if v := os.Getenv(EnvCountdown); v != "" {
		c.Countdown = v
	}
	if v := os.Getenv(EnvPreset); v != "" {
		c.DefaultPreset = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	return nil
}

// Validate checks every field that can be checked without I/O.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Identity) == "" {
		return fmt.Errorf("config: %w", domain.ErrEmptyIdentity)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Store.DataDir == "" {
			return fmt.Errorf("config: store.data_dir is required for the %s backend", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn (or %s) is required for the postgres backend", EnvDSN)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	if _, err := c.AlarmInterval(); err != nil {
		return err
	}
	if _, err := c.Tone(); err != nil {
		return err
	}
	if _, err := engine.ParseCountdown(c.Countdown); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.NapConfig(); err != nil {
		return err
	}
	if err := reward.ValidateLevels(c.Levels); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// AlarmInterval returns the gap between alarm repetitions.
func (c *Config) AlarmInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Alarm.Interval)
	if err != nil {
		return 0, fmt.Errorf("config: alarm.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: alarm.interval must be positive, got %s", d)
	}
	return d, nil
}

// Tone returns the alarm beep parameters.
func (c *Config) Tone() (alarm.Tone, error) {
	length, err := time.ParseDuration(c.Alarm.Length)
	if err != nil {
		return alarm.Tone{}, fmt.Errorf("config: alarm.length: %w", err)
	}
	t := alarm.Tone{Frequency: c.Alarm.Frequency, Length: length, Volume: c.Alarm.Volume}
	if err := t.Validate(alarm.SampleRate); err != nil {
		return alarm.Tone{}, fmt.Errorf("config: alarm tone: %w", err)
	}
	return t, nil
}

// CountdownStrategy returns the parsed countdown strategy.
func (c *Config) CountdownStrategy() engine.Countdown {
	cd, _ := engine.ParseCountdown(c.Countdown)
	return cd
}

// NapConfig resolves DefaultPreset into a nap configuration. Digits are
// read as custom minutes; anything else must name a preset.
func (c *Config) NapConfig() (domain.NapConfig, error) {
	return domain.ParseChoice(c.DefaultPreset)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.Level)
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Store.DataDir, "napflow.db")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "napflow")
	}
	return ".napflow"
}
