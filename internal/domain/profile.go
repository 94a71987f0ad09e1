package domain

import (
	"fmt"
	"time"
)

// Profile is the persisted progress of one user. The JSON shape is the
// logical schema shared by every gateway.
type Profile struct {
	Name          string `json:"name"`
	XP            int    `json:"xp"`
	TotalNaps     int    `json:"totalNaps"`
	TotalMinutes  int    `json:"totalMinutes"`
	CurrentStreak int    `json:"currentStreak"`
	LastNapDate   *Date  `json:"lastNapDate"`
}

// Onboarded reports whether the user has picked a display name.
func (p Profile) Onboarded() bool {
	return p.Name != ""
}

// SessionRecord is one completed nap. Records are never mutated.
type SessionRecord struct {
	ID              string    `json:"id"`
	Date            Date      `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	XPAwarded       int       `json:"xpAwarded"`
	Label           string    `json:"label,omitempty"`
	Source          Source    `json:"source,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.In(time.UTC).Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From Date
	To   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !r.To.Before(d)
}
