package timecalc

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format the API uses everywhere.
const DateLayout = "2006-01-02"

// MonthLayout identifies a month selector such as "2026-03".
const MonthLayout = "2006-01"

// Period selectors accepted by ParsePeriod.
const (
	PeriodToday     = "today"
	PeriodThisWeek  = "this-week"
	PeriodThisMonth = "this-month"
)

var ErrInvalidRange = errors.New("start date must not be after end date")

// Window is an inclusive [Start, End] range of calendar dates used to
// parameterize timesheet queries.
type Window struct {
	Start string
	End   string
	Label string
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.Start == "" && w.End == ""
}

// ParsePeriod resolves a period selector relative to now. Besides the named
// periods it accepts an explicit month ("2026-03").
func ParsePeriod(period string, now time.Time) (Window, error) {
	switch period {
	case "", PeriodToday:
		d := now.Format(DateLayout)
		return Window{Start: d, End: d, Label: "Today"}, nil
	case PeriodThisWeek:
		from, to := WeekRange(now)
		return Window{Start: from.Format(DateLayout), End: to.Format(DateLayout), Label: "This Week"}, nil
	case PeriodThisMonth:
		w := MonthWindow(now)
		w.Label = "This Month"
		return w, nil
	}
	m, err := time.ParseInLocation(MonthLayout, period, now.Location())
	if err != nil {
		return Window{}, fmt.Errorf("unknown period %q (want today, this-week, this-month or YYYY-MM)", period)
	}
	return MonthWindow(m), nil
}

// MonthWindow returns the window covering the calendar month containing t.
func MonthWindow(t time.Time) Window {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return Window{
		Start: first.Format(DateLayout),
		End:   last.Format(DateLayout),
		Label: first.Format("January 2006"),
	}
}

// CustomWindow validates an explicit date range.
func CustomWindow(start, end string) (Window, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if from.After(to) {
		return Window{}, ErrInvalidRange
	}
	return Window{Start: start, End: end, Label: start + " – " + end}, nil
}

// MonthsSince lists month selectors from the month of earliest up to and
// including the month of now, newest first. Each month appears once.
func MonthsSince(earliest, now time.Time) []string {
	cur := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var months []string
	for !cur.After(end) {
		months = append(months, cur.Format(MonthLayout))
		cur = cur.AddDate(0, 1, 0)
	}
	for i, j := 0, len(months)-1; i < j; i, j = i+1, j-1 {
		months[i], months[j] = months[j], months[i]
	}
	if len(months) == 0 {
		months = []string{end.Format(MonthLayout)}
	}
	return months
}

// ParseTimestamp parses an API timestamp. Timestamps without a zone suffix
// are taken as UTC, which is what the server stores.
func ParseTimestamp(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", ts)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// WeekRange returns the Sunday and Saturday of the week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	sunday := t.AddDate(0, 0, -int(t.Weekday()))
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, t.Location())
	saturday := sunday.AddDate(0, 0, 6)
	saturday = time.Date(saturday.Year(), saturday.Month(), saturday.Day(), 23, 59, 59, 0, t.Location())
	return sunday, saturday
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
