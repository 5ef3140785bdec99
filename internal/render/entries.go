package render

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/reconcile"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// Row is one reconciled session in display form.
type Row struct {
	Date     string         `json:"date" yaml:"date"`
	ClockIn  string         `json:"clock_in" yaml:"clock_in"`
	ClockOut string         `json:"clock_out" yaml:"clock_out"`
	Duration string         `json:"duration" yaml:"duration"`
	Hours    *float64       `json:"hours,omitempty" yaml:"hours,omitempty"`
	Kind     model.PairKind `json:"kind" yaml:"kind"`
	// Key identifies the entry for edit and delete.
	Key string `json:"key" yaml:"key"`
}

// Rows flattens reconciled days into rows, keeping their order. Times are
// shown in loc.
func Rows(days []reconcile.Day, loc *time.Location) []Row {
	var rows []Row
	for _, d := range days {
		for _, p := range d.Pairs {
			r := Row{
				Date:     d.Date,
				ClockIn:  clockTime(p.ClockIn, loc),
				ClockOut: clockTime(p.ClockOut, loc),
				Duration: p.DurationLabel(),
				Kind:     p.Kind(),
				Key:      p.Key(),
			}
			if h, ok := p.Hours(); ok {
				r.Hours = &h
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func clockTime(e *model.ClockEvent, loc *time.Location) string {
	if e == nil || e.At.IsZero() {
		return model.UnknownTimeLabel
	}
	return e.At.In(loc).Format("15:04")
}

// Entries prints reconciled days in the requested format.
func (p *Printer) Entries(days []reconcile.Day, loc *time.Location, f Format) error {
	rows := Rows(days, loc)
	switch f {
	case FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		return p.JSON(rows)
	case FormatYAML:
		if rows == nil {
			rows = []Row{}
		}
		return p.YAML(rows)
	case FormatCSV:
		return p.entriesCSV(rows)
	}

	if len(rows) == 0 {
		p.Line("No entries found.")
		return nil
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Date, r.ClockIn, r.ClockOut, r.Duration, r.Key}
	}
	p.Table([]string{"DATE", "IN", "OUT", "DURATION", "KEY"}, cells)
	return nil
}

func (p *Printer) entriesCSV(rows []Row) error {
	w := csv.NewWriter(p.w)
	if err := w.Write([]string{"date", "clock_in", "clock_out", "hours", "kind", "key"}); err != nil {
		return err
	}
	for _, r := range rows {
		hours := ""
		if r.Hours != nil {
			hours = strconv.FormatFloat(*r.Hours, 'f', 2, 64)
		}
		if err := w.Write([]string{r.Date, r.ClockIn, r.ClockOut, hours, string(r.Kind), r.Key}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ClockState prints whether the user is clocked in. since is the start of
// the open session, if known.
func (p *Printer) ClockState(st model.ClockState, since time.Time, now time.Time) {
	if st != model.StateIn {
		fmt.Fprintln(p.w, p.style(idleStyle, "Clocked out"))
		return
	}
	msg := "Clocked in"
	if !since.IsZero() {
		layout := "15:04"
		if !timecalc.SameDay(since, now) {
			layout = "Jan 2 15:04"
		}
		elapsed := int64(now.Sub(since).Seconds())
		msg = fmt.Sprintf("Clocked in since %s (%s)", since.Format(layout), timecalc.FormatDurationHHMMSS(elapsed))
	}
	fmt.Fprintln(p.w, p.style(workingStyle, msg))
}

// OpenSince returns the clock-in time of the in-progress session, if any.
func OpenSince(days []reconcile.Day) (time.Time, bool) {
	for _, d := range days {
		for _, p := range d.Pairs {
			if p.Kind() == model.PairInProgress {
				return p.ClockIn.At, true
			}
		}
	}
	return time.Time{}, false
}
