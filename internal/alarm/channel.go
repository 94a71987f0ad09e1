package alarm

import (
	"context"
	"errors"

	"github.com/hammamikhairi/napflow/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.AlarmChannel = (*Channel)(nil)
	_ domain.Sounder      = Silent{}
)

// Channel combines one sound source with any number of notifiers into a
// single AlarmChannel.
type Channel struct {
	sound     domain.Sounder
	notifiers []domain.Notifier
}

// NewChannel creates a channel. A nil sound source is replaced with Silent.
func NewChannel(sound domain.Sounder, notifiers ...domain.Notifier) *Channel {
	if sound == nil {
		sound = Silent{}
	}
	return &Channel{sound: sound, notifiers: notifiers}
}

// Play plays the alarm cue.
func (c *Channel) Play(ctx context.Context) error {
	return c.sound.Play(ctx)
}

// Notify fans out to every notifier. One failing notifier does not stop
// the others; their errors are joined.
func (c *Channel) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range c.notifiers {
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop silences the sound source.
func (c *Channel) Stop() {
	c.sound.Stop()
}

// Silent is a sound source that plays nothing. Used when sound is disabled
// or no audio device is available.
type Silent struct{}

// Play does nothing.
func (Silent) Play(context.Context) error { return nil }

// Stop does nothing.
func (Silent) Stop() {}
