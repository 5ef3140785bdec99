package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// PayloadKind tags which item shape a timesheet response used.
type PayloadKind int

const (
	// PayloadFlat is a list of raw clock events.
	PayloadFlat PayloadKind = iota
	// PayloadGrouped is a list of {date, entries, totalHours} day groups.
	PayloadGrouped
)

func (k PayloadKind) String() string {
	if k == PayloadGrouped {
		return "grouped"
	}
	return "flat"
}

// Payload is a decoded timesheet response before normalization. Exactly one
// of Flat or Days is populated, according to Kind.
type Payload struct {
	Kind       PayloadKind
	Flat       []model.ClockEvent
	Days       []model.DayGroup
	TotalHours *float64
}

type timesheetResponse struct {
	Entries    []json.RawMessage `json:"entries"`
	Timesheets []json.RawMessage `json:"timesheets"`
	TotalHours *float64          `json:"totalHours"`
}

// itemProbe detects the grouped shape: only day groups carry an entries list.
type itemProbe struct {
	Entries *[]model.ClockEvent `json:"entries"`
}

// decodeTimesheets reads either response shape into a tagged Payload. The
// shape is decided by the first item.
func decodeTimesheets(body []byte) (Payload, error) {
	var resp timesheetResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return Payload{}, fmt.Errorf("%w: timesheets: %v", ErrDataShape, err)
	}
	items := resp.Entries
	if items == nil {
		items = resp.Timesheets
	}
	p := Payload{Kind: PayloadFlat, TotalHours: resp.TotalHours}
	if len(items) == 0 {
		return p, nil
	}

	var probe itemProbe
	if err := sonic.Unmarshal(items[0], &probe); err != nil {
		return Payload{}, fmt.Errorf("%w: timesheet item: %v", ErrDataShape, err)
	}
	if probe.Entries != nil {
		p.Kind = PayloadGrouped
	}

	for i, raw := range items {
		switch p.Kind {
		case PayloadGrouped:
			var g model.DayGroup
			if err := sonic.Unmarshal(raw, &g); err != nil {
				return Payload{}, fmt.Errorf("%w: day group %d: %v", ErrDataShape, i, err)
			}
			p.Days = append(p.Days, g)
		default:
			var ev model.ClockEvent
			if err := sonic.Unmarshal(raw, &ev); err != nil {
				return Payload{}, fmt.Errorf("%w: event %d: %v", ErrDataShape, i, err)
			}
			p.Flat = append(p.Flat, ev)
		}
	}
	return p, nil
}

// Normalize flattens a Payload into the canonical timesheet. Events get their
// parsed time; events inside a day group inherit the group's date when they
// carry none. Events of unknown type or with an unparseable timestamp are
// dropped and logged.
func Normalize(p Payload, log logrus.FieldLogger) model.Timesheet {
	ts := model.Timesheet{TotalHours: p.TotalHours}
	add := func(ev model.ClockEvent, groupDate string) {
		if ev.Type != model.ClockIn && ev.Type != model.ClockOut {
			log.WithFields(logrus.Fields{"type": ev.Type, "timestamp": ev.Timestamp}).Warn("dropping event of unknown type")
			return
		}
		at, err := timecalc.ParseTimestamp(ev.Timestamp)
		if err != nil {
			log.WithField("timestamp", ev.Timestamp).Warn("dropping event with unparseable timestamp")
			return
		}
		ev.At = at
		if ev.Date == "" {
			ev.Date = groupDate
		}
		ts.Events = append(ts.Events, ev)
	}

	switch p.Kind {
	case PayloadGrouped:
		for _, g := range p.Days {
			for _, ev := range g.Entries {
				add(ev, g.Date)
			}
		}
	default:
		for _, ev := range p.Flat {
			add(ev, "")
		}
	}
	return ts
}

// Timesheets fetches the events inside w. A zero window asks for everything.
func (c *Client) Timesheets(ctx context.Context, w timecalc.Window) (model.Timesheet, error) {
	q := url.Values{}
	if !w.IsZero() {
		q.Set("start_date", w.Start)
		q.Set("end_date", w.End)
	}
	r, err := c.do(ctx, call{method: http.MethodGet, path: "/timesheets", query: q})
	if err != nil {
		return model.Timesheet{}, err
	}
	p, err := decodeTimesheets(r.body)
	if err != nil {
		return model.Timesheet{}, err
	}
	ts := Normalize(p, c.log)
	c.log.WithFields(logrus.Fields{"shape": p.Kind, "events": len(ts.Events)}).Debug("timesheets decoded")
	return ts, nil
}

// UpdateEntry changes the times of an existing entry.
func (c *Client) UpdateEntry(ctx context.Context, upd model.EntryUpdate) error {
	if upd.Timestamp == "" {
		return model.ErrMissingKey
	}
	_, err := c.do(ctx, call{method: http.MethodPut, path: "/timesheets", body: upd})
	return err
}

// DeleteEntry removes the entry identified by its key timestamp.
func (c *Client) DeleteEntry(ctx context.Context, timestamp string) error {
	if timestamp == "" {
		return model.ErrMissingKey
	}
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/timesheets",
		body:   model.EntryDelete{Timestamp: timestamp},
	})
	return err
}
