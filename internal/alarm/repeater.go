// Package alarm delivers the wake-up alarm: a repeating, cancellable
// schedule that plays a tone and raises a notification until the user
// acknowledges the finished nap.
package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/napflow/internal/clock"
	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Default alarm text.
const (
	DefaultTitle = "Wake up!"
	DefaultBody  = "Your nap is over."
)

// DefaultInterval is the gap between alarm repetitions.
const DefaultInterval = 1500 * time.Millisecond

// Option configures the repeater.
type Option func(*Repeater)

// WithInterval sets the gap between repetitions.
func WithInterval(d time.Duration) Option {
	return func(r *Repeater) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithClock sets the time source used to schedule repetitions.
func WithClock(c clock.Clock) Option {
	return func(r *Repeater) {
		r.clock = c
	}
}

// WithMessage sets the notification title and body.
func WithMessage(title, body string) Option {
	return func(r *Repeater) {
		r.title = title
		r.body = body
	}
}

// Repeater invokes an AlarmChannel right away and then once per interval
// until stopped. Every scheduled repetition carries the token it was
// started with; Stop bumps the token so a repetition that was already
// scheduled finds itself stale and does nothing.
type Repeater struct {
	channel  domain.AlarmChannel
	clock    clock.Clock
	log      *logger.Logger
	interval time.Duration
	title    string
	body     string

	// deliverMu is held for the whole of one delivery. Stop acquires it
	// after deactivating, so it returns only once nothing is in flight.
	deliverMu sync.Mutex

	mu         sync.Mutex
	active     bool
	token      uint64
	pending    clock.Timer
	ctx        context.Context
	cancel     context.CancelFunc
	deliveries int
}

// NewRepeater creates a repeater for the given channel.
func NewRepeater(channel domain.AlarmChannel, log *logger.Logger, opts ...Option) *Repeater {
	r := &Repeater{
		channel:  channel,
		clock:    clock.System{},
		log:      log,
		interval: DefaultInterval,
		title:    DefaultTitle,
		body:     DefaultBody,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins repeating. The first delivery is scheduled immediately.
// Non-blocking; calling Start on an active repeater does nothing.
func (r *Repeater) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		r.log.Warn("alarm already active")
		return
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.active = true
	r.token++
	r.deliveries = 0

	tok := r.token
	r.pending = r.clock.AfterFunc(0, func() { r.fire(tok) })

	r.log.Info("alarm started (interval=%s)", r.interval)
}

// Stop cancels all pending repetitions and waits for an in-flight delivery
// to finish. After Stop returns no delivery happens until the next Start.
// Safe to call when already stopped.
func (r *Repeater) Stop() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	r.token++
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	cancel := r.cancel
	r.cancel = nil
	delivered := r.deliveries
	r.mu.Unlock()

	cancel()

	// Wait out a delivery that passed the token check before we deactivated.
	r.deliverMu.Lock()
	r.deliverMu.Unlock() //nolint:staticcheck

	r.channel.Stop()
	r.log.Info("alarm stopped after %d deliveries", delivered)
}

// Active reports whether the alarm is currently repeating.
func (r *Repeater) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Deliveries returns how many times the channel was invoked since the
// last Start.
func (r *Repeater) Deliveries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deliveries
}

// fire runs one repetition and schedules the next one.
func (r *Repeater) fire(tok uint64) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	if !r.active || tok != r.token {
		r.mu.Unlock()
		return
	}
	r.deliveries++
	n := r.deliveries
	ctx := r.ctx
	r.pending = r.clock.AfterFunc(r.interval, func() { r.fire(tok) })
	r.mu.Unlock()

	r.deliver(ctx, n)
}

// deliver invokes the channel. Failures are logged and never interrupt
// the schedule.
func (r *Repeater) deliver(ctx context.Context, n int) {
	r.log.Debug("alarm delivery #%d", n)

	if err := r.channel.Play(ctx); err != nil {
		r.log.Warn("alarm: playing sound (delivery #%d): %v", n, err)
	}
	if err := r.channel.Notify(ctx, r.title, r.body); err != nil {
		r.log.Warn("alarm: notifying (delivery #%d): %v", n, err)
	}
}
