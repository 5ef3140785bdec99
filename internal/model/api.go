package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// AuthConfig is the identity-provider configuration served by GET /auth.
type AuthConfig struct {
	Domain      string `json:"domain"`
	ClientID    string `json:"clientId"`
	RedirectURI string `json:"redirectUri,omitempty"`
	Audience    string `json:"audience"`
	Scope       string `json:"scope"`
}

// ClockState is the toggle state reported by GET /status.
type ClockState string

const (
	StateOut ClockState = "out"
	StateIn  ClockState = "in"
)

// ClockAction is the body of POST /clock.
type ClockAction struct {
	Action ClockState `json:"action"`
}

// ExportFormat selects the timesheet file type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// Binary reports whether files of this format arrive base64-encoded inside
// JSON envelopes.
func (f ExportFormat) Binary() bool {
	return f == ExportPDF
}

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Format    ExportFormat `json:"format"`
}

// Filename is the download name the web client used.
func (r ExportRequest) Filename() string {
	return fmt.Sprintf("timesheet_%s_to_%s.%s", r.StartDate, r.EndDate, r.Format)
}

// ExportFile is a decoded export ready to be written out.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// EntryUpdate is the body of PUT /timesheets. Timestamp identifies the entry.
type EntryUpdate struct {
	Timestamp         string   `json:"timestamp"`
	ClockInTimestamp  string   `json:"clock_in_timestamp,omitempty"`
	ClockOutTimestamp string   `json:"clock_out_timestamp,omitempty"`
	Hours             *float64 `json:"hours,omitempty"`
}

// EntryDelete is the body of DELETE /timesheets.
type EntryDelete struct {
	Timestamp string `json:"timestamp"`
}

const maxShiftHours = 24

var clockTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

var (
	ErrNoTimes          = errors.New("at least one of clock-in or clock-out time is required")
	ErrInvalidClockTime = errors.New("time must use HH:MM 24-hour format")
	ErrClockOrder       = errors.New("clock out time must be after clock in time")
	ErrShiftTooLong     = errors.New("work duration cannot exceed 24 hours")
	ErrMissingKey       = errors.New("entry timestamp is required")
)

// NewEntryUpdate builds an edit request for the entry identified by key.
// in and out are "HH:MM" wall-clock times on day (interpreted in day's
// location); either may be empty but not both.
func NewEntryUpdate(key string, day time.Time, in, out string) (EntryUpdate, error) {
	if key == "" {
		return EntryUpdate{}, ErrMissingKey
	}
	if in == "" && out == "" {
		return EntryUpdate{}, ErrNoTimes
	}

	upd := EntryUpdate{Timestamp: key}
	var inAt, outAt time.Time
	if in != "" {
		t, err := onDay(day, in)
		if err != nil {
			return EntryUpdate{}, fmt.Errorf("clock in %q: %w", in, err)
		}
		inAt = t
		upd.ClockInTimestamp = t.UTC().Format(time.RFC3339)
	}
	if out != "" {
		t, err := onDay(day, out)
		if err != nil {
			return EntryUpdate{}, fmt.Errorf("clock out %q: %w", out, err)
		}
		outAt = t
		upd.ClockOutTimestamp = t.UTC().Format(time.RFC3339)
	}

	if in != "" && out != "" {
		if !outAt.After(inAt) {
			return EntryUpdate{}, ErrClockOrder
		}
		h := outAt.Sub(inAt).Hours()
		if h > maxShiftHours {
			return EntryUpdate{}, ErrShiftTooLong
		}
		upd.Hours = &h
	}
	return upd, nil
}

func onDay(day time.Time, hhmm string) (time.Time, error) {
	if !clockTimePattern.MatchString(hhmm) {
		return time.Time{}, ErrInvalidClockTime
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, ErrInvalidClockTime
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
