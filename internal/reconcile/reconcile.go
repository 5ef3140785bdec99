// Package reconcile turns the raw clock-in/clock-out stream returned by the
// timesheet API into display-ready work sessions and period totals.
//
// Malformed input is resolved by policy, never reported as an error:
// dangling clock-ins are dropped unless they are today's latest punch while
// the user is clocked in, and orphan clock-outs are kept only when the server
// confirmed a positive duration for them.
package reconcile

import (
	"sort"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// Options carries the two facts pairing needs about "now".
type Options struct {
	// Today is the current calendar date (YYYY-MM-DD) in the user's zone.
	Today string
	// ClockedIn reports whether the clock toggle is currently IN.
	ClockedIn bool
}

// Day is one calendar date's reconciled sessions, most recent first.
type Day struct {
	Date  string              `json:"date" yaml:"date"`
	Pairs []model.SessionPair `json:"pairs" yaml:"pairs"`
}

// Group partitions events by calendar date and orders each group by
// timestamp. The input slice is not modified.
func Group(events []model.ClockEvent) map[string][]model.ClockEvent {
	groups := make(map[string][]model.ClockEvent)
	for _, e := range events {
		if e.At.IsZero() {
			if at, err := timecalc.ParseTimestamp(e.Timestamp); err == nil {
				e.At = at
			}
		}
		day := e.Day()
		groups[day] = append(groups[day], e)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].At.Before(g[j].At) })
	}
	return groups
}

// Pair reconciles one date's timestamp-ordered events using a forward scan
// that matches each clock-in with the nearest following clock-out. Returned
// pairs point into events.
func Pair(date string, events []model.ClockEvent, opts Options) []model.SessionPair {
	var pairs []model.SessionPair
	emit := func(in, out *model.ClockEvent) {
		if p, err := model.NewSessionPair(in, out); err == nil {
			pairs = append(pairs, p)
		}
	}

	for i := 0; i < len(events); {
		switch events[i].Type {
		case model.ClockIn:
			j := nextClockOut(events, i+1)
			if j >= 0 {
				emit(&events[i], &events[j])
				i = j + 1
				continue
			}
			// Dangling: only today's latest punch while clocked in is live.
			if i == len(events)-1 && date == opts.Today && opts.ClockedIn {
				emit(&events[i], nil)
			}
		case model.ClockOut:
			if events[i].ServerHours() > 0 {
				emit(nil, &events[i])
			}
		}
		i++
	}
	return pairs
}

func nextClockOut(events []model.ClockEvent, from int) int {
	for j := from; j < len(events); j++ {
		if events[j].Type == model.ClockOut {
			return j
		}
	}
	return -1
}

// Reconcile groups, pairs and orders events for display: dates newest first,
// and within a date pairs by their latest activity, newest first. Dates whose
// events were all discarded are omitted.
func Reconcile(events []model.ClockEvent, opts Options) []Day {
	groups := Group(events)

	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	days := make([]Day, 0, len(dates))
	for _, d := range dates {
		pairs := Pair(d, groups[d], opts)
		if len(pairs) == 0 {
			continue
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].SortTime().After(pairs[j].SortTime())
		})
		days = append(days, Day{Date: d, Pairs: pairs})
	}
	return days
}

// Total sums the server hours of clock-out events only. When that sum is
// exactly zero the response's own precomputed total, if any, is used.
func Total(ts model.Timesheet) float64 {
	var total float64
	for _, e := range ts.Events {
		if e.Type == model.ClockOut {
			total += e.ServerHours()
		}
	}
	if total == 0 && ts.TotalHours != nil {
		return *ts.TotalHours
	}
	return total
}

// EarliestDate returns the oldest calendar date among events.
func EarliestDate(events []model.ClockEvent) (string, bool) {
	var earliest string
	for _, e := range events {
		d := e.Day()
		if d == "" {
			continue
		}
		if earliest == "" || d < earliest {
			earliest = d
		}
	}
	return earliest, earliest != ""
}
