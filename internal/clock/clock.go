// Package clock abstracts time so the countdown and the alarm schedule can
// be driven deterministically in tests.
package clock

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Clock provides the current time and one-shot callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the wall clock. Callbacks run on their own goroutine.
type System struct{}

// Now returns the current local time.
func (System) Now() time.Time { return time.Now() }

// AfterFunc calls f in its own goroutine after d.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
