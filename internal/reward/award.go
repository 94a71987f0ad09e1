package reward

import (
	"time"

	"github.com/hammamikhairi/napflow/internal/domain"
)

// XPPerMinute is the standard reward rule.
const XPPerMinute = 5

// Award is what one completed nap earned.
type Award struct {
	Minutes int
	XP      int
	Streak  int
}

// XPForDuration returns the whole minutes in total and the XP they earn.
func XPForDuration(total time.Duration) (minutes, xp int) {
	minutes = int(total / time.Minute)
	return minutes, minutes * XPPerMinute
}

// NextStreak applies the streak rule: the first nap ever starts a streak
// of one, a nap on a new calendar day extends it, and another nap on the
// same day leaves it alone.
func NextStreak(current int, last *domain.Date, today domain.Date) int {
	switch {
	case last == nil:
		return 1
	case *last != today:
		return current + 1
	default:
		return current
	}
}

// ApplyCompletion returns the profile after a nap of the configured total
// length finished on today.
func ApplyCompletion(p domain.Profile, total time.Duration, today domain.Date) (domain.Profile, Award) {
	minutes, xp := XPForDuration(total)
	streak := NextStreak(p.CurrentStreak, p.LastNapDate, today)

	day := today
	p.XP += xp
	p.TotalNaps++
	p.TotalMinutes += minutes
	p.CurrentStreak = streak
	p.LastNapDate = &day

	return p, Award{Minutes: minutes, XP: xp, Streak: streak}
}
