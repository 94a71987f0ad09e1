// Package domain defines the core types and interfaces for the nap timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration bounds for a single nap.
const (
	MinNapDuration = 1 * time.Minute
	MaxNapDuration = 180 * time.Minute
)

// Source identifies where a nap configuration came from.
type Source string

const (
	SourceFocus    Source = "focus"
	SourceRefresh  Source = "refresh"
	SourceRecharge Source = "recharge"
	SourceCustom   Source = "custom"
)

// NapConfig is the immutable configuration for one countdown run.
type NapConfig struct {
	Duration time.Duration
	Label    string
	Source   Source
}

// Preset is one of the built-in nap lengths.
type Preset struct {
	ID          Source
	Name        string
	Description string
	Duration    time.Duration
}

// Presets lists the built-in nap lengths in display order.
var Presets = []Preset{
	{ID: SourceFocus, Name: "Power Focus", Description: "Ideal for concentration", Duration: 20 * time.Minute},
	{ID: SourceRefresh, Name: "Quick Refresh", Description: "Short and snappy", Duration: 15 * time.Minute},
	{ID: SourceRecharge, Name: "Deep Recharge", Description: "A full sleep cycle", Duration: 90 * time.Minute},
}

// Config returns the nap configuration for the preset.
func (p Preset) Config() NapConfig {
	return NapConfig{Duration: p.Duration, Label: p.Name, Source: p.ID}
}

// PresetConfig returns the configuration for a built-in preset. The lookup
// accepts the preset ID or its name, case-insensitively.
func PresetConfig(id string) (NapConfig, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, p := range Presets {
		if string(p.ID) == key || strings.ToLower(p.Name) == key {
			return p.Config(), nil
		}
	}
	return NapConfig{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, id)
}

// CustomConfig returns a configuration for a user-chosen number of minutes.
func CustomConfig(minutes int) (NapConfig, error) {
	cfg := NapConfig{
		Duration: time.Duration(minutes) * time.Minute,
		Label:    "Custom",
		Source:   SourceCustom,
	}
	if err := cfg.Validate(); err != nil {
		return NapConfig{}, err
	}
	return cfg, nil
}

// ParseChoice resolves user input into a configuration: digits are custom
// minutes, anything else must name a preset.
func ParseChoice(s string) (NapConfig, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return CustomConfig(n)
	}
	return PresetConfig(s)
}

// Validate rejects configurations that must never enter the engine.
func (c NapConfig) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfig, c.Duration)
	}
	if c.Duration%time.Second != 0 {
		return fmt.Errorf("%w: duration must be whole seconds, got %s", ErrInvalidConfig, c.Duration)
	}
	if c.Duration < MinNapDuration || c.Duration > MaxNapDuration {
		return fmt.Errorf("%w: duration %s outside %s..%s", ErrInvalidConfig, c.Duration, MinNapDuration, MaxNapDuration)
	}
	switch c.Source {
	case SourceFocus, SourceRefresh, SourceRecharge, SourceCustom:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	return nil
}

// Phase is the state of the nap session engine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseAlarming
	// PhaseComplete is transient and is immediately followed by PhaseIdle.
	PhaseComplete
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseAlarming:
		return "alarming"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// TimerState is a point-in-time copy of the engine's countdown.
type TimerState struct {
	Label     string
	Source    Source
	Total     time.Duration
	Remaining time.Duration
	Phase     Phase
	StartedAt time.Time // zero unless running
	Deadline  time.Time // zero unless running
}

// RemainingSeconds returns the remaining time as whole seconds.
func (t TimerState) RemainingSeconds() int {
	return int(t.Remaining / time.Second)
}

// Elapsed returns how much of the nap has already passed.
func (t TimerState) Elapsed() time.Duration {
	return t.Total - t.Remaining
}
