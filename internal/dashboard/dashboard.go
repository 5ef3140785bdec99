// Package dashboard coordinates a clock action with the refreshes that depend
// on it and publishes the result as one consistent snapshot.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/punch/internal/clock"
	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/reconcile"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// ErrSuperseded is returned by a refresh that finished after a newer one had
// started. Its result is discarded.
var ErrSuperseded = errors.New("refresh superseded by a newer one")

// Source loads timesheet events for a window.
type Source interface {
	Timesheets(ctx context.Context, w timecalc.Window) (model.Timesheet, error)
}

// Snapshot is everything one refresh produced.
type Snapshot struct {
	State  model.ClockState
	Window timecalc.Window
	Total  float64
	Date   string
	Days   []reconcile.Day
	// Generation orders snapshots; later refreshes carry larger numbers.
	Generation uint64
	UpdatedAt  time.Time
}

type Dashboard struct {
	tracker *clock.Tracker
	src     Source
	now     func() time.Time
	loc     *time.Location
	log     logrus.FieldLogger

	gen  atomic.Uint64
	mu   sync.Mutex
	snap Snapshot
}

type Option func(*Dashboard)

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) { d.loc = loc }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Dashboard) { d.log = l }
}

func New(tracker *clock.Tracker, src Source, opts ...Option) *Dashboard {
	d := &Dashboard{
		tracker: tracker,
		src:     src,
		now:     time.Now,
		loc:     time.Local,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Current returns the last published snapshot.
func (d *Dashboard) Current() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// Today is the current date in the dashboard's zone.
func (d *Dashboard) Today() string {
	return d.now().In(d.loc).Format(timecalc.DateLayout)
}

// Refresh polls the clock state, then loads the total for w and the entries
// for date concurrently. The snapshot is published only when both succeed.
func (d *Dashboard) Refresh(ctx context.Context, w timecalc.Window, date string) (Snapshot, error) {
	gen := d.gen.Add(1)
	st, err := d.tracker.Refresh(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return d.reload(ctx, gen, st, w, date)
}

// Toggle flips the clock and then refreshes like Refresh. On ErrSuperseded
// the clock change itself has still been applied.
func (d *Dashboard) Toggle(ctx context.Context, w timecalc.Window, date string) (Snapshot, error) {
	gen := d.gen.Add(1)
	st, err := d.tracker.Toggle(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return d.reload(ctx, gen, st, w, date)
}

func (d *Dashboard) reload(ctx context.Context, gen uint64, st model.ClockState, w timecalc.Window, date string) (Snapshot, error) {
	var totals, entries model.Timesheet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := d.src.Timesheets(gctx, w)
		totals = ts
		return err
	})
	g.Go(func() error {
		ts, err := d.src.Timesheets(gctx, dayWindow(date))
		entries = ts
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		State:      st,
		Window:     w,
		Total:      reconcile.Total(totals),
		Date:       date,
		Days:       d.reconcile(entries.Events, st),
		Generation: gen,
		UpdatedAt:  d.now(),
	}
	return d.publish(snap)
}

func (d *Dashboard) publish(snap Snapshot) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if latest := d.gen.Load(); snap.Generation != latest {
		d.log.WithFields(logrus.Fields{"generation": snap.Generation, "latest": latest}).Debug("dropping superseded refresh")
		return snap, ErrSuperseded
	}
	d.snap = snap
	return snap, nil
}

// Entries loads the clock state and one day's entries concurrently and
// reconciles them. It does not touch the published snapshot.
func (d *Dashboard) Entries(ctx context.Context, date string) ([]reconcile.Day, model.ClockState, error) {
	var (
		st      model.ClockState
		entries model.Timesheet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.tracker.Refresh(gctx)
		st = s
		return err
	})
	g.Go(func() error {
		ts, err := d.src.Timesheets(gctx, dayWindow(date))
		entries = ts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.StateOut, err
	}
	return d.reconcile(entries.Events, st), st, nil
}

// Hours returns the aggregated total for w.
func (d *Dashboard) Hours(ctx context.Context, w timecalc.Window) (float64, error) {
	ts, err := d.src.Timesheets(ctx, w)
	if err != nil {
		return 0, err
	}
	return reconcile.Total(ts), nil
}

func (d *Dashboard) reconcile(events []model.ClockEvent, st model.ClockState) []reconcile.Day {
	return reconcile.Reconcile(events, reconcile.Options{
		Today:     d.Today(),
		ClockedIn: st == model.StateIn,
	})
}

func dayWindow(date string) timecalc.Window {
	if date == "" {
		return timecalc.Window{}
	}
	return timecalc.Window{Start: date, End: date}
}
