package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, time.June, 3, 13, 0, 0, 0, time.UTC)

func TestFakeFiresInOrder(t *testing.T) {
	c := NewFake(epoch)
	var order []string

	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(5*time.Second, func() { order = append(order, "c") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, c.Pending())
}

func TestFakeCallbackSeesItsDeadline(t *testing.T) {
	c := NewFake(epoch)
	var seen time.Time
	c.AfterFunc(1500*time.Millisecond, func() { seen = c.Now() })

	c.Advance(10 * time.Second)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), seen)
}

func TestFakeRescheduleWithinWindow(t *testing.T) {
	c := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	assert.Equal(t, 5, count)
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeZeroDelayFiresOnAdvance(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(0, func() { fired = true })
	assert.False(t, fired)

	c.Advance(0)
	assert.True(t, fired)
}
