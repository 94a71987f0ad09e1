package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/engine"
	"github.com/hammamikhairi/napflow/internal/logger"
	"github.com/hammamikhairi/napflow/internal/reward"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	interval, err := cfg.AlarmInterval()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, interval)

	tone, err := cfg.Tone()
	require.NoError(t, err)
	assert.Equal(t, 800.0, tone.Frequency)
	assert.Equal(t, 500*time.Millisecond, tone.Length)

	nap, err := cfg.NapConfig()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, nap.Duration)
	assert.Equal(t, engine.CountdownDeadline, cfg.CountdownStrategy())
	assert.Equal(t, logger.LevelNormal, cfg.LogLevel())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Alarm, cfg.Alarm)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "napflow.yaml")
	yml := `
identity: ada
store:
  backend: file
  data_dir: ` + dir + `
alarm:
  interval: 2s
  sound: false
countdown: decrement
default_preset: "25"
logging:
  level: verbose
levels:
  - name: Rookie
    min_xp: 0
  - name: Pro
    min_xp: 50
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ada", cfg.Identity)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.False(t, cfg.Alarm.Sound)
	assert.Equal(t, 800.0, cfg.Alarm.Frequency, "unset keys keep their defaults")
	assert.Equal(t, engine.CountdownDecrement, cfg.CountdownStrategy())
	assert.Equal(t, logger.LevelVerbose, cfg.LogLevel())
	assert.Equal(t, []reward.Level{{Name: "Rookie", MinXP: 0}, {Name: "Pro", MinXP: 50}}, cfg.Levels)

	interval, err := cfg.AlarmInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)

	nap, err := cfg.NapConfig()
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCustom, nap.Source)
	assert.Equal(t, 25*time.Minute, nap.Duration)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "napflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvIdentity, "bob")
	t.Setenv(EnvStore, BackendMemory)
	t.Setenv(EnvSound, "false")
	t.Setenv(EnvAlarmInterval, "3s")
	t.Setenv(EnvPreset, "recharge")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Identity)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.False(t, cfg.Alarm.Sound)
	nap, err := cfg.NapConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, nap.Duration)
}

func TestEnvOverrideBadBool(t *testing.T) {
	t.Setenv(EnvSound, "loud")
	_, err := Load("")
	assert.ErrorContains(t, err, EnvSound)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty identity", func(c *Config) { c.Identity = " " }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "floppy" }},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres; c.Store.DSN = "" }},
		{"file without dir", func(c *Config) { c.Store.Backend = BackendFile; c.Store.DataDir = "" }},
		{"bad interval", func(c *Config) { c.Alarm.Interval = "often" }},
		{"zero interval", func(c *Config) { c.Alarm.Interval = "0s" }},
		{"loud tone", func(c *Config) { c.Alarm.Volume = 2 }},
		{"bad countdown", func(c *Config) { c.Countdown = "sundial" }},
		{"unknown preset", func(c *Config) { c.DefaultPreset = "siesta" }},
		{"too long", func(c *Config) { c.DefaultPreset = "500" }},
		{"unsorted levels", func(c *Config) {
			c.Levels = []reward.Level{{Name: "a", MinXP: 0}, {Name: "b", MinXP: 10}, {Name: "c", MinXP: 5}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "napflow.yaml")
	cfg := Default()
	cfg.Identity = "ada"
	cfg.Store.Backend = BackendMemory
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ada", loaded.Identity)
	assert.Equal(t, BackendMemory, loaded.Store.Backend)
	assert.Equal(t, cfg.Levels, loaded.Levels)
}
