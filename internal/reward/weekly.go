package reward

import (
	"time"

	"github.com/hammamikhairi/napflow/internal/domain"
)

// DayCount is the number of naps completed on one day.
type DayCount struct {
	Date  domain.Date
	Count int
}

// Week is the Monday-first seven day window used for the weekly overview.
type Week struct {
	Start domain.Date
	Days  [7]DayCount
}

// WeekStart returns the Monday on or before today. Sunday belongs to the
// week that started six days earlier.
func WeekStart(today domain.Date) domain.Date {
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDays(-offset)
}

// WeekRange returns the inclusive date range of the week containing today.
func WeekRange(today domain.Date) domain.DateRange {
	start := WeekStart(today)
	return domain.DateRange{From: start, To: start.AddDays(6)}
}

// Weekly counts records per day for the week containing today. Records
// outside the window are ignored and days without naps stay at zero.
func Weekly(records []domain.SessionRecord, today domain.Date) Week {
	w := Week{Start: WeekStart(today)}
	for i := range w.Days {
		w.Days[i].Date = w.Start.AddDays(i)
	}
	for _, r := range records {
		for i := range w.Days {
			if w.Days[i].Date == r.Date {
				w.Days[i].Count++
				break
			}
		}
	}
	return w
}

// Counts returns the per-day counts, Monday first.
func (w Week) Counts() [7]int {
	var out [7]int
	for i, d := range w.Days {
		out[i] = d.Count
	}
	return out
}

// Total returns the number of naps in the week.
func (w Week) Total() int {
	n := 0
	for _, d := range w.Days {
		n += d.Count
	}
	return n
}

// ActiveDays returns how many days of the week have at least one nap.
func (w Week) ActiveDays() int {
	n := 0
	for _, d := range w.Days {
		if d.Count > 0 {
			n++
		}
	}
	return n
}

// Day returns the entry for a weekday.
func (w Week) Day(wd time.Weekday) DayCount {
	return w.Days[(int(wd)+6)%7]
}
