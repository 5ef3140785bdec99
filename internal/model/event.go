package model

import "time"

// EventType distinguishes the two kinds of punches the API records.
type EventType string

const (
	ClockIn  EventType = "clock_in"
	ClockOut EventType = "clock_out"
)

// ClockEvent is a single raw punch as returned by the timesheet API.
// Events are treated as immutable once fetched.
type ClockEvent struct {
	Type      EventType `json:"type" yaml:"type"`
	Timestamp string    `json:"timestamp" yaml:"timestamp"`
	Date      string    `json:"date,omitempty" yaml:"date,omitempty"`
	Hours     *float64  `json:"hours,omitempty" yaml:"hours,omitempty"`
	// ClockInTime and ClockInTimestamp reference the clock_in a clock_out
	// closes. They are carried through but never used for pairing.
	ClockInTime      string `json:"clock_in_time,omitempty" yaml:"clock_in_time,omitempty"`
	ClockInTimestamp string `json:"clock_in_timestamp,omitempty" yaml:"clock_in_timestamp,omitempty"`

	// At is the parsed Timestamp, filled in by the API adapter.
	At time.Time `json:"-" yaml:"-"`
}

// Day returns the calendar date the event belongs to. An explicit Date wins
// over the date derived from the timestamp.
func (e ClockEvent) Day() string {
	if e.Date != "" {
		return e.Date
	}
	if !e.At.IsZero() {
		return e.At.Format("2006-01-02")
	}
	if len(e.Timestamp) >= 10 {
		return e.Timestamp[:10]
	}
	return ""
}

// ServerHours returns the server-computed duration, or 0 when absent.
func (e ClockEvent) ServerHours() float64 {
	if e.Hours == nil {
		return 0
	}
	return *e.Hours
}

// DayGroup is the per-day shape some timesheet responses use.
type DayGroup struct {
	Date       string       `json:"date"`
	Entries    []ClockEvent `json:"entries"`
	TotalHours *float64     `json:"totalHours,omitempty"`
}

// Timesheet is the canonical, flattened result of a timesheet query.
type Timesheet struct {
	Events []ClockEvent
	// TotalHours is the server's top-level precomputed total, if sent.
	TotalHours *float64
}
