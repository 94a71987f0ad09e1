package alarm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (n *recordingNotifier) Notify(context.Context, string, string) error {
	n.calls++
	return n.err
}

type countingSounder struct {
	plays, stops int
}

func (s *countingSounder) Play(context.Context) error { s.plays++; return nil }
func (s *countingSounder) Stop()                      { s.stops++ }

func TestChannelFansOut(t *testing.T) {
	sound := &countingSounder{}
	failing := &recordingNotifier{err: errors.New("display gone")}
	ok := &recordingNotifier{}
	ch := NewChannel(sound, failing, ok)
	ctx := context.Background()

	assert.NoError(t, ch.Play(ctx))
	err := ch.Notify(ctx, "t", "b")
	assert.ErrorContains(t, err, "display gone")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "a failing notifier must not block the others")

	ch.Stop()
	assert.Equal(t, 1, sound.plays)
	assert.Equal(t, 1, sound.stops)
}

func TestChannelWithoutSound(t *testing.T) {
	ch := NewChannel(nil)
	assert.NoError(t, ch.Play(context.Background()))
	assert.NoError(t, ch.Notify(context.Background(), "t", "b"))
	ch.Stop()
}
