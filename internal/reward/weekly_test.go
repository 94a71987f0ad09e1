package reward

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/hammamikhairi/napflow/internal/domain"
)

func rec(d domain.Date) domain.SessionRecord {
	return domain.SessionRecord{Date: d, DurationMinutes: 20, XPAwarded: 100}
}

func TestWeekStart(t *testing.T) {
	for i := 0; i < 7; i++ {
		assert.Equal(t, monday, WeekStart(monday.AddDays(i)), "day offset %d", i)
	}
	// The following Monday starts a new week.
	assert.Equal(t, monday.AddDays(7), WeekStart(monday.AddDays(7)))
	// Sunday wraps back, not forward.
	sunday := monday.AddDays(-1)
	assert.Equal(t, time.Sunday, sunday.Weekday())
	assert.Equal(t, monday.AddDays(-7), WeekStart(sunday))
}

func TestWeeklyCounts(t *testing.T) {
	wed := monday.AddDays(2)
	records := []domain.SessionRecord{rec(monday), rec(monday), rec(wed)}

	w := Weekly(records, wed)

	want := [7]int{2, 0, 1, 0, 0, 0, 0}
	if diff := cmp.Diff(want, w.Counts()); diff != "" {
		t.Fatalf("weekly counts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, w.Total())
	assert.Equal(t, 2, w.ActiveDays())
	assert.Equal(t, 2, w.Day(time.Monday).Count)
	assert.Equal(t, 1, w.Day(time.Wednesday).Count)
	assert.Equal(t, monday.AddDays(6), w.Day(time.Sunday).Date)
}

func TestWeeklyEmptyAndOutOfWindow(t *testing.T) {
	records := []domain.SessionRecord{rec(monday.AddDays(-1)), rec(monday.AddDays(7))}

	w := Weekly(records, monday.AddDays(3))
	assert.Equal(t, [7]int{}, w.Counts())
	assert.Zero(t, w.ActiveDays())
	assert.Equal(t, monday, w.Start)
}

func TestWeeklyOnSunday(t *testing.T) {
	sunday := monday.AddDays(6)
	w := Weekly([]domain.SessionRecord{rec(sunday), rec(monday)}, sunday)

	assert.Equal(t, [7]int{1, 0, 0, 0, 0, 0, 1}, w.Counts())
}

func TestWeekRange(t *testing.T) {
	r := WeekRange(monday.AddDays(4))
	assert.Equal(t, domain.DateRange{From: monday, To: monday.AddDays(6)}, r)
}
