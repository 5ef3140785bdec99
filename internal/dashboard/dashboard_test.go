package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/punch/internal/clock"
	"github.com/Tiliavir/punch/internal/dashboard"
	"github.com/Tiliavir/punch/internal/logging"
	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var now = time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

type remote struct {
	mu    sync.Mutex
	state model.ClockState
}

func (r *remote) Status(context.Context) (model.ClockState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == "" {
		return model.StateOut, nil
	}
	return r.state, nil
}

func (r *remote) Clock(_ context.Context, a model.ClockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = a
	return nil
}

type sourceFunc func(ctx context.Context, w timecalc.Window) (model.Timesheet, error)

func (f sourceFunc) Timesheets(ctx context.Context, w timecalc.Window) (model.Timesheet, error) {
	return f(ctx, w)
}

func h(v float64) *float64 { return &v }

func ev(typ model.EventType, ts string, hours *float64) model.ClockEvent {
	at, _ := timecalc.ParseTimestamp(ts)
	return model.ClockEvent{Type: typ, Timestamp: ts, Hours: hours, At: at}
}

// fixture serves a month total of 12.5h and two sessions on 2026-03-03, the
// second still open.
func fixture(_ context.Context, w timecalc.Window) (model.Timesheet, error) {
	if w.Start != w.End {
		return model.Timesheet{Events: []model.ClockEvent{
			ev(model.ClockOut, "2026-03-02T16:00:00Z", h(8)),
			ev(model.ClockOut, "2026-03-03T09:00:00Z", h(4.5)),
		}}, nil
	}
	return model.Timesheet{Events: []model.ClockEvent{
		ev(model.ClockIn, "2026-03-03T04:30:00Z", nil),
		ev(model.ClockOut, "2026-03-03T09:00:00Z", h(4.5)),
		ev(model.ClockIn, "2026-03-03T09:30:00Z", nil),
	}}, nil
}

func newDashboard(r *remote, src dashboard.Source) *dashboard.Dashboard {
	return dashboard.New(clock.New(r, logging.Discard()), src,
		dashboard.WithClock(func() time.Time { return now }),
		dashboard.WithLocation(time.UTC),
		dashboard.WithLogger(logging.Discard()),
	)
}

func month() timecalc.Window { return timecalc.MonthWindow(now) }

func TestRefresh(t *testing.T) {
	d := newDashboard(&remote{state: model.StateIn}, sourceFunc(fixture))

	snap, err := d.Refresh(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)

	assert.Equal(t, model.StateIn, snap.State)
	assert.InDelta(t, 12.5, snap.Total, 1e-9)
	require.Len(t, snap.Days, 1)
	require.Len(t, snap.Days[0].Pairs, 2)
	assert.Equal(t, model.PairInProgress, snap.Days[0].Pairs[0].Kind())
	assert.Equal(t, model.PairComplete, snap.Days[0].Pairs[1].Kind())
	assert.Equal(t, snap, d.Current())
}

func TestRefreshHidesOpenSessionWhenClockedOut(t *testing.T) {
	d := newDashboard(&remote{state: model.StateOut}, sourceFunc(fixture))

	snap, err := d.Refresh(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)
	require.Len(t, snap.Days, 1)
	require.Len(t, snap.Days[0].Pairs, 1)
	assert.Equal(t, model.PairComplete, snap.Days[0].Pairs[0].Kind())
}

func TestRefreshFansOut(t *testing.T) {
	var inFlight atomic.Int32
	both := make(chan struct{})
	var once sync.Once
	src := sourceFunc(func(ctx context.Context, w timecalc.Window) (model.Timesheet, error) {
		if inFlight.Add(1) == 2 {
			once.Do(func() { close(both) })
		}
		select {
		case <-both:
		case <-time.After(time.Second):
			return model.Timesheet{}, errors.New("queries did not overlap")
		}
		return fixture(ctx, w)
	})
	d := newDashboard(&remote{}, src)

	_, err := d.Refresh(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	var fail atomic.Bool
	src := sourceFunc(func(ctx context.Context, w timecalc.Window) (model.Timesheet, error) {
		if fail.Load() && w.Start == w.End {
			return model.Timesheet{}, errors.New("entries unavailable")
		}
		return fixture(ctx, w)
	})
	d := newDashboard(&remote{}, src)

	first, err := d.Refresh(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)

	fail.Store(true)
	_, err = d.Refresh(context.Background(), month(), "2026-03-03")
	require.Error(t, err)
	assert.Equal(t, first, d.Current(), "totals must not be published without entries")
}

func TestSupersededRefreshIsDropped(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	src := sourceFunc(func(ctx context.Context, w timecalc.Window) (model.Timesheet, error) {
		if w.Start == "2026-03-02" && w.End == "2026-03-02" {
			entered <- struct{}{}
			<-release
		}
		return fixture(ctx, w)
	})
	d := newDashboard(&remote{}, src)

	slow := make(chan error)
	go func() {
		_, err := d.Refresh(context.Background(), month(), "2026-03-02")
		slow <- err
	}()
	<-entered

	fresh, err := d.Refresh(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-slow, dashboard.ErrSuperseded)
	assert.Equal(t, fresh, d.Current())
	assert.Equal(t, "2026-03-03", d.Current().Date)
}

func TestToggle(t *testing.T) {
	r := &remote{}
	d := newDashboard(r, sourceFunc(fixture))

	snap, err := d.Toggle(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, model.StateIn, snap.State)
	assert.Equal(t, model.PairInProgress, snap.Days[0].Pairs[0].Kind())

	snap, err = d.Toggle(context.Background(), month(), "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, model.StateOut, snap.State)
}

func TestEntriesAndHours(t *testing.T) {
	d := newDashboard(&remote{state: model.StateIn}, sourceFunc(fixture))

	days, st, err := d.Entries(context.Background(), "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, model.StateIn, st)
	require.Len(t, days, 1)
	assert.Len(t, days[0].Pairs, 2)

	total, err := d.Hours(context.Background(), month())
	require.NoError(t, err)
	assert.InDelta(t, 12.5, total, 1e-9)
	assert.Equal(t, dashboard.Snapshot{}, d.Current(), "Entries and Hours do not publish")
}
