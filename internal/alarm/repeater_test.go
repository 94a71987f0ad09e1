package alarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/napflow/internal/clock"
	"github.com/hammamikhairi/napflow/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeChannel records every delivery.
type fakeChannel struct {
	mu        sync.Mutex
	plays     int
	notes     []string
	stops     int
	playErr   error
	notifyErr error
	onPlay    func()
}

func (c *fakeChannel) Play(context.Context) error {
	c.mu.Lock()
	c.plays++
	hook := c.onPlay
	err := c.playErr
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (c *fakeChannel) Notify(_ context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, title+" "+body)
	return c.notifyErr
}

func (c *fakeChannel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
}

func (c *fakeChannel) playCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}

func (c *fakeChannel) noteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

var epoch = time.Date(2024, time.June, 3, 13, 0, 0, 0, time.UTC)

func newFakeRepeater(ch *fakeChannel) (*Repeater, *clock.Fake) {
	clk := clock.NewFake(epoch)
	log := logger.New(logger.LevelOff, nil)
	return NewRepeater(ch, log, WithClock(clk)), clk
}

func TestRepeaterDeliversImmediatelyThenEveryInterval(t *testing.T) {
	ch := &fakeChannel{}
	r, clk := newFakeRepeater(ch)

	r.Start(context.Background())
	assert.True(t, r.Active())

	clk.Advance(0)
	assert.Equal(t, 1, ch.playCount())
	assert.Equal(t, 1, ch.noteCount())

	clk.Advance(DefaultInterval - time.Millisecond)
	assert.Equal(t, 1, ch.playCount())

	clk.Advance(time.Millisecond)
	assert.Equal(t, 2, ch.playCount())

	clk.Advance(2 * DefaultInterval)
	assert.Equal(t, 4, ch.playCount())
	assert.Equal(t, 4, r.Deliveries())
	assert.Equal(t, DefaultTitle+" "+DefaultBody, ch.notes[0])

	r.Stop()
}

func TestRepeaterNoDeliveryAfterStop(t *testing.T) {
	ch := &fakeChannel{}
	r, clk := newFakeRepeater(ch)

	r.Start(context.Background())
	clk.Advance(3 * DefaultInterval)
	require.Equal(t, 4, ch.playCount())

	r.Stop()
	assert.False(t, r.Active())
	assert.Equal(t, 1, ch.stops)
	assert.Zero(t, clk.Pending())

	clk.Advance(10 * DefaultInterval)
	assert.Equal(t, 4, ch.playCount())
	assert.Equal(t, 4, ch.noteCount())
}

func TestRepeaterContinuesAfterDeliveryFailures(t *testing.T) {
	ch := &fakeChannel{playErr: errors.New("no audio device"), notifyErr: errors.New("no display")}
	r, clk := newFakeRepeater(ch)

	r.Start(context.Background())
	clk.Advance(5 * DefaultInterval)

	assert.Equal(t, 6, ch.playCount())
	assert.Equal(t, 6, ch.noteCount())
	r.Stop()
}

func TestRepeaterStopIsIdempotent(t *testing.T) {
	ch := &fakeChannel{}
	r, clk := newFakeRepeater(ch)

	r.Stop()
	assert.Zero(t, ch.stops)

	r.Start(context.Background())
	clk.Advance(0)
	r.Stop()
	r.Stop()
	assert.Equal(t, 1, ch.stops)
}

func TestRepeaterRestartIgnoresStaleSchedule(t *testing.T) {
	ch := &fakeChannel{}
	r, clk := newFakeRepeater(ch)

	r.Start(context.Background())
	clk.Advance(DefaultInterval)
	require.Equal(t, 2, ch.playCount())
	r.Stop()

	r.Start(context.Background())
	assert.Zero(t, r.Deliveries())
	clk.Advance(0)
	assert.Equal(t, 1, r.Deliveries())

	clk.Advance(DefaultInterval)
	assert.Equal(t, 2, r.Deliveries())
	assert.Equal(t, 4, ch.playCount())
	r.Stop()
}

func TestRepeaterStartWhileActive(t *testing.T) {
	ch := &fakeChannel{}
	r, clk := newFakeRepeater(ch)

	r.Start(context.Background())
	r.Start(context.Background())
	clk.Advance(0)
	assert.Equal(t, 1, ch.playCount())
	r.Stop()
}

func TestRepeaterCustomIntervalAndMessage(t *testing.T) {
	ch := &fakeChannel{}
	clk := clock.NewFake(epoch)
	r := NewRepeater(ch, logger.New(logger.LevelOff, nil),
		WithClock(clk),
		WithInterval(time.Second),
		WithMessage("Up", "Now"),
	)

	r.Start(context.Background())
	clk.Advance(2 * time.Second)
	assert.Equal(t, 3, ch.playCount())
	assert.Equal(t, "Up Now", ch.notes[2])
	r.Stop()
}

func TestRepeaterStopWaitsForInFlightDelivery(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	ch := &fakeChannel{}
	ch.onPlay = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	r := NewRepeater(ch, logger.New(logger.LevelOff, nil), WithInterval(10*time.Millisecond))
	r.Start(context.Background())

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first delivery never started")
	}

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a delivery was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned")
	}

	after := ch.playCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, ch.playCount(), "no delivery may happen after Stop returns")
}
