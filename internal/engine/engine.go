// Package engine implements the nap session state machine: the countdown,
// the hand-off to the alarm when it runs out, and the reward bookkeeping
// once the user acknowledges that they are awake.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hammamikhairi/napflow/internal/clock"
	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
	"github.com/hammamikhairi/napflow/internal/reward"
)

// MaxNameLength bounds the display name in runes.
const MaxNameLength = 40

// Countdown selects how Remaining is derived on each tick.
type Countdown int

const (
	// CountdownDeadline recomputes Remaining from the absolute deadline,
	// so a delayed tick never makes the nap longer than configured.
	CountdownDeadline Countdown = iota
	// CountdownDecrement subtracts one second per tick.
	CountdownDecrement
)

// ParseCountdown maps "deadline" and "decrement" to a Countdown.
func ParseCountdown(name string) (Countdown, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "deadline":
		return CountdownDeadline, nil
	case "decrement":
		return CountdownDecrement, nil
	default:
		return CountdownDeadline, fmt.Errorf("unknown countdown strategy %q", name)
	}
}

func (c Countdown) String() string {
	if c == CountdownDecrement {
		return "decrement"
	}
	return "deadline"
}

// Alarm is the repeating wake-up signal. Start must not block; Stop must
// guarantee that nothing is delivered once it returns.
type Alarm interface {
	Start(ctx context.Context)
	Stop()
}

// Option configures the engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIdentity sets the identity the profile and nap log are stored under.
func WithIdentity(id string) Option {
	return func(e *Engine) {
		e.identity = id
	}
}

// WithLevels replaces the default level table.
func WithLevels(table []reward.Level) Option {
	return func(e *Engine) {
		e.levels = table
	}
}

// WithCountdown selects the countdown strategy.
func WithCountdown(c Countdown) Option {
	return func(e *Engine) {
		e.countdown = c
	}
}

// WithObserver registers a callback that receives a copy of the timer
// state after every change. It runs outside the engine lock and may call
// back into the engine.
func WithObserver(fn func(domain.TimerState)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithConfig sets the nap configuration selected at startup.
func WithConfig(cfg domain.NapConfig) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// Completion summarizes an acknowledged nap.
type Completion struct {
	Record    domain.SessionRecord
	Profile   domain.Profile
	Award     reward.Award
	Before    reward.Progress
	After     reward.Progress
	LevelUp   bool
	Persisted bool
}

// Engine runs one nap at a time. All methods are safe for concurrent use.
type Engine struct {
	gateway   domain.Gateway
	alarm     Alarm
	clock     clock.Clock
	log       *logger.Logger
	identity  string
	levels    []reward.Level
	countdown Countdown
	observer  func(domain.TimerState)

	mu      sync.Mutex
	cfg     domain.NapConfig
	state   domain.TimerState
	profile domain.Profile
	loaded  bool // profile reflects the store; never write it back otherwise
	tick    clock.Timer
	gen     uint64 // bumped whenever the pending tick becomes stale
	tickN   int    // index of the pending tick, counted from StartedAt
}

// New creates an engine. The initial configuration is the first preset
// unless WithConfig says otherwise.
func New(gateway domain.Gateway, alarm Alarm, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		gateway:   gateway,
		alarm:     alarm,
		clock:     clock.System{},
		log:       log,
		identity:  "default",
		levels:    reward.DefaultLevels,
		countdown: CountdownDeadline,
		cfg:       domain.Presets[0].Config(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = idleState(e.cfg)
	return e
}

// Load reads the stored profile for the engine's identity. A missing
// profile is not an error: the engine starts from a blank one. On any
// other failure the engine keeps its cached profile, reports the error
// and refuses to write the profile until a later load succeeds.
func (e *Engine) Load(ctx context.Context) (domain.Profile, error) {
	p, err := e.gateway.GetProfile(ctx, e.identity)
	if errors.Is(err, domain.ErrNotFound) {
		e.log.Info("no stored profile for %q, starting fresh", e.identity)
		p, err = &domain.Profile{}, nil
	}
	if err != nil {
		e.log.Error("loading profile for %q: %v", e.identity, err)
		return domain.Profile{}, fmt.Errorf("loading profile: %w", err)
	}

	e.mu.Lock()
	e.profile = *p
	e.loaded = true
	e.mu.Unlock()

	e.log.Debug("loaded profile %q (xp=%d, naps=%d, streak=%d)", p.Name, p.XP, p.TotalNaps, p.CurrentStreak)
	return *p, nil
}

// Start begins a countdown with cfg. Returns domain.ErrSessionActive while
// a nap is running or its alarm is pending.
func (e *Engine) Start(cfg domain.NapConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.state.Phase != domain.PhaseIdle {
		phase := e.state.Phase
		e.mu.Unlock()
		return fmt.Errorf("%w (phase %s)", domain.ErrSessionActive, phase)
	}

	now := e.clock.Now()
	e.cfg = cfg
	e.state = domain.TimerState{
		Label:     cfg.Label,
		Source:    cfg.Source,
		Total:     cfg.Duration,
		Remaining: cfg.Duration,
		Phase:     domain.PhaseRunning,
		StartedAt: now,
		Deadline:  now.Add(cfg.Duration),
	}
	e.gen++
	e.scheduleTickLocked(1)
	snap := e.state
	e.mu.Unlock()

	e.log.Info("nap started: %q for %s", cfg.Label, cfg.Duration)
	e.emit(snap)
	return nil
}

// Cancel stops a running countdown without reward and resets Remaining to
// the configured total. While the alarm is pending it silences the alarm,
// again without reward. Returns false when there was nothing to cancel.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	switch e.state.Phase {
	case domain.PhaseRunning:
		e.stopTickLocked()
		e.state = idleState(e.cfg)
		snap := e.state
		e.mu.Unlock()

		e.log.Info("nap cancelled")
		e.emit(snap)
		return true

	case domain.PhaseAlarming:
		e.state.Phase = domain.PhaseComplete
		e.mu.Unlock()

		e.alarm.Stop()

		e.mu.Lock()
		e.state = idleState(e.cfg)
		snap := e.state
		e.mu.Unlock()

		e.log.Info("alarm silenced without acknowledgement, no reward")
		e.emit(snap)
		return true

	default:
		e.mu.Unlock()
		return false
	}
}

// Acknowledge ends a pending alarm, applies the reward and persists the
// nap. It returns nil, nil when no alarm is pending, so calling it twice
// has the same effect as calling it once. When it returns, the alarm is
// guaranteed silent.
//
// A persistence failure does not undo the reward: the returned Completion
// is still valid and carries Persisted=false, and the error says why.
func (e *Engine) Acknowledge(ctx context.Context) (*Completion, error) {
	e.mu.Lock()
	if e.state.Phase != domain.PhaseAlarming {
		e.mu.Unlock()
		return nil, nil
	}
	e.state.Phase = domain.PhaseComplete
	snap := e.state
	e.mu.Unlock()

	// The alarm's deliveries never take the engine lock, but they may wait
	// on whoever is observing us, so stop it with the lock released.
	e.alarm.Stop()
	e.emit(snap)

	loadErr := e.ensureLoaded(ctx)

	now := e.clock.Now()
	today := domain.DateOf(now)

	e.mu.Lock()
	cfg := e.cfg
	total := e.state.Total
	before := reward.ComputeLevel(e.profile.XP, e.levels)
	profile, award := reward.ApplyCompletion(e.profile, total, today)
	e.profile = profile
	after := reward.ComputeLevel(profile.XP, e.levels)
	e.mu.Unlock()

	record := domain.SessionRecord{
		ID:              newRecordID(),
		Date:            today,
		DurationMinutes: award.Minutes,
		XPAwarded:       award.XP,
		Label:           cfg.Label,
		Source:          cfg.Source,
		CompletedAt:     now,
	}

	c := &Completion{
		Record:  record,
		Profile: profile,
		Award:   award,
		Before:  before,
		After:   after,
		LevelUp: after.Current.MinXP > before.Current.MinXP,
	}

	var err error
	if loadErr != nil {
		// Only the append-only log is safe to write without the stored profile.
		err = fmt.Errorf("profile not saved: %w", loadErr)
		if appendErr := e.gateway.AppendSession(ctx, e.identity, record); appendErr != nil {
			err = errors.Join(err, fmt.Errorf("appending session: %w", appendErr))
		}
	} else {
		err = e.persist(ctx, profile, record)
	}
	if err != nil {
		e.log.Error("persisting nap %s: %v", record.ID, err)
	} else {
		c.Persisted = true
	}

	e.mu.Lock()
	e.state = idleState(e.cfg)
	snap = e.state
	e.mu.Unlock()

	e.log.Info("nap complete: +%d XP (%d min), streak %d, level %s", award.XP, award.Minutes, award.Streak, after.Current.Name)
	if c.LevelUp {
		e.log.Info("level up: %s -> %s", before.Current.Name, after.Current.Name)
	}
	e.emit(snap)
	return c, err
}

// ChangeConfig selects a new configuration. A running countdown is
// discarded; a pending alarm must be acknowledged or cancelled first.
func (e *Engine) ChangeConfig(cfg domain.NapConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	switch e.state.Phase {
	case domain.PhaseAlarming, domain.PhaseComplete:
		e.mu.Unlock()
		return domain.ErrAlarmPending
	case domain.PhaseRunning:
		e.stopTickLocked()
		e.log.Info("discarding running countdown for new configuration")
	}
	e.cfg = cfg
	e.state = idleState(cfg)
	snap := e.state
	e.mu.Unlock()

	e.log.Debug("configuration changed: %q (%s)", cfg.Label, cfg.Duration)
	e.emit(snap)
	return nil
}

// Rename sets the display name and stores the profile.
func (e *Engine) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", domain.ErrInvalidName, MaxNameLength)
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.profile.Name = name
	p := e.profile
	e.mu.Unlock()

	if err := e.gateway.SetProfile(ctx, e.identity, p); err != nil {
		e.log.Error("saving renamed profile: %v", err)
		return fmt.Errorf("saving profile: %w", err)
	}
	e.log.Info("display name set to %q", name)
	return nil
}

// Reset clears the stored profile and nap log. Only allowed while idle.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Phase != domain.PhaseIdle {
		e.mu.Unlock()
		return domain.ErrSessionActive
	}
	e.mu.Unlock()

	if err := e.gateway.Clear(ctx, e.identity); err != nil {
		e.log.Error("clearing data for %q: %v", e.identity, err)
		return fmt.Errorf("clearing data: %w", err)
	}

	e.mu.Lock()
	e.profile = domain.Profile{}
	e.loaded = true
	e.mu.Unlock()
	e.log.Info("all data cleared for %q", e.identity)
	return nil
}

// Weekly returns the per-day nap counts of the week containing today.
// On a gateway error the week is returned with all counts at zero.
func (e *Engine) Weekly(ctx context.Context, today domain.Date) (reward.Week, error) {
	records, err := e.gateway.QuerySessions(ctx, e.identity, reward.WeekRange(today))
	if err != nil {
		e.log.Warn("querying this week's naps: %v", err)
		return reward.Weekly(nil, today), fmt.Errorf("querying sessions: %w", err)
	}
	return reward.Weekly(records, today), nil
}

// History returns the naps completed within r.
func (e *Engine) History(ctx context.Context, r domain.DateRange) ([]domain.SessionRecord, error) {
	records, err := e.gateway.QuerySessions(ctx, e.identity, r)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	return records, nil
}

// Snapshot returns a copy of the timer state.
func (e *Engine) Snapshot() domain.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Config returns the selected configuration.
func (e *Engine) Config() domain.NapConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Profile returns a copy of the cached profile.
func (e *Engine) Profile() domain.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.profile
	if p.LastNapDate != nil {
		d := *p.LastNapDate
		p.LastNapDate = &d
	}
	return p
}

// Progress returns the level progress for the cached profile.
func (e *Engine) Progress() reward.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return reward.ComputeLevel(e.profile.XP, e.levels)
}

// Levels returns the level table in use.
func (e *Engine) Levels() []reward.Level {
	return e.levels
}

// Close stops the countdown and the alarm. The engine is left idle.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopTickLocked()
	e.state = idleState(e.cfg)
	e.mu.Unlock()

	e.alarm.Stop()
	e.log.Debug("engine closed")
}

// scheduleTickLocked arms tick n, due n whole seconds after StartedAt.
func (e *Engine) scheduleTickLocked(n int) {
	gen := e.gen
	due := e.state.StartedAt.Add(time.Duration(n) * time.Second)
	delay := due.Sub(e.clock.Now())
	e.tickN = n
	e.tick = e.clock.AfterFunc(delay, func() { e.onTick(gen) })
}

func (e *Engine) stopTickLocked() {
	e.gen++
	if e.tick != nil {
		e.tick.Stop()
		e.tick = nil
	}
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state.Phase != domain.PhaseRunning {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	remaining := e.nextRemainingLocked(now)
	if remaining < e.state.Remaining {
		e.state.Remaining = remaining
	}

	if e.state.Remaining > 0 {
		next := e.tickN + 1
		if e.countdown == CountdownDeadline {
			// Skip boundaries that already passed while this tick was late.
			if n := int(now.Sub(e.state.StartedAt)/time.Second) + 1; n > next {
				next = n
			}
		}
		e.scheduleTickLocked(next)
		snap := e.state
		e.mu.Unlock()
		e.emit(snap)
		return
	}

	e.tick = nil
	e.state.Phase = domain.PhaseAlarming
	e.alarm.Start(context.Background())
	snap := e.state
	e.mu.Unlock()

	e.log.Info("nap over, alarm started")
	e.emit(snap)
}

func (e *Engine) nextRemainingLocked(now time.Time) time.Duration {
	var rem time.Duration
	switch e.countdown {
	case CountdownDecrement:
		rem = e.state.Remaining - time.Second
	default:
		left := e.state.Deadline.Sub(now)
		rem = (left + time.Second - 1) / time.Second * time.Second
	}
	if rem < 0 {
		rem = 0
	}
	return rem
}

// ensureLoaded retries Load when no load has succeeded yet.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := e.Load(ctx)
	return err
}

func (e *Engine) persist(ctx context.Context, profile domain.Profile, record domain.SessionRecord) error {
	if c, ok := e.gateway.(domain.SessionCompleter); ok {
		if err := c.CompleteSession(ctx, e.identity, profile, record); err != nil {
			return fmt.Errorf("completing session: %w", err)
		}
		return nil
	}

	if err := e.gateway.AppendSession(ctx, e.identity, record); err != nil {
		return fmt.Errorf("appending session: %w", err)
	}
	if err := e.gateway.SetProfile(ctx, e.identity, profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (e *Engine) emit(s domain.TimerState) {
	if e.observer != nil {
		e.observer(s)
	}
}

func idleState(cfg domain.NapConfig) domain.TimerState {
	return domain.TimerState{
		Label:     cfg.Label,
		Source:    cfg.Source,
		Total:     cfg.Duration,
		Remaining: cfg.Duration,
		Phase:     domain.PhaseIdle,
	}
}
