package model

import (
	"errors"
	"fmt"
	"time"
)

// PairKind classifies a SessionPair by which ends are present.
type PairKind string

const (
	PairComplete   PairKind = "complete"
	PairInProgress PairKind = "in_progress"
	PairOrphan     PairKind = "orphan"
)

const (
	InProgressLabel  = "In Progress"
	UnknownTimeLabel = "--:--"
)

// ErrEmptyPair is returned when a pair would have neither end.
var ErrEmptyPair = errors.New("session pair needs a clock-in or a clock-out")

// SessionPair is one reconciled work interval. At most one end is nil.
type SessionPair struct {
	ClockIn  *ClockEvent `json:"clock_in,omitempty" yaml:"clock_in,omitempty"`
	ClockOut *ClockEvent `json:"clock_out,omitempty" yaml:"clock_out,omitempty"`
}

// NewSessionPair builds a pair, rejecting the both-nil case.
func NewSessionPair(in, out *ClockEvent) (SessionPair, error) {
	if in == nil && out == nil {
		return SessionPair{}, ErrEmptyPair
	}
	return SessionPair{ClockIn: in, ClockOut: out}, nil
}

// Kind reports which ends of the pair are present.
func (p SessionPair) Kind() PairKind {
	switch {
	case p.ClockIn != nil && p.ClockOut != nil:
		return PairComplete
	case p.ClockIn != nil:
		return PairInProgress
	default:
		return PairOrphan
	}
}

// Hours returns the pair's duration in hours. Complete pairs are measured
// from their timestamps and may be zero or negative; orphans report the
// server-confirmed hours. In-progress pairs have no numeric duration.
func (p SessionPair) Hours() (float64, bool) {
	switch p.Kind() {
	case PairComplete:
		return p.ClockOut.At.Sub(p.ClockIn.At).Hours(), true
	case PairOrphan:
		return p.ClockOut.ServerHours(), true
	default:
		return 0, false
	}
}

// DurationLabel renders the duration the way entry listings show it.
func (p SessionPair) DurationLabel() string {
	h, ok := p.Hours()
	if !ok {
		return InProgressLabel
	}
	return FormatHours(h)
}

// SortTime is the instant of the pair's most recent activity.
func (p SessionPair) SortTime() time.Time {
	if p.ClockOut != nil {
		return p.ClockOut.At
	}
	return p.ClockIn.At
}

// Key is the timestamp that identifies the pair for edit and delete calls.
func (p SessionPair) Key() string {
	if p.ClockOut != nil {
		return p.ClockOut.Timestamp
	}
	return p.ClockIn.Timestamp
}

// FormatHours renders hours with two decimals, e.g. "7.50h".
func FormatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}
