package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/dashboard"
	"github.com/Tiliavir/punch/internal/render"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	dashPeriod string
	dashDate   string
	dashWatch  time.Duration
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show clock state, period total and the day's sessions together",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashPeriod, "period", timecalc.PeriodThisWeek, "Total period: today, this-week, this-month or YYYY-MM")
	dashboardCmd.Flags().StringVar(&dashDate, "date", "", "Day whose sessions are listed (YYYY-MM-DD); defaults to today")
	dashboardCmd.Flags().DurationVar(&dashWatch, "watch", 0, "Refresh at this interval until interrupted, e.g. 30s")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if dashDate != "" {
		if _, err := timecalc.ParseDate(dashDate, a.loc); err != nil {
			return err
		}
	}
	ctx := cmd.Context()

	refresh := func() error {
		w, err := timecalc.ParsePeriod(dashPeriod, a.now())
		if err != nil {
			return err
		}
		date := dashDate
		if date == "" {
			date = a.today()
		}
		snap, err := a.dash.Refresh(ctx, w, date)
		if errors.Is(err, dashboard.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return err
		}
		printSnapshot(a, snap)
		return nil
	}

	if err := refresh(); err != nil || dashWatch <= 0 {
		return err
	}

	ticker := time.NewTicker(dashWatch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.out.Line("")
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}

func printSnapshot(a *app, snap dashboard.Snapshot) {
	a.out.Title("punch – " + snap.Window.Label)
	since, _ := render.OpenSince(snap.Days)
	a.out.ClockState(snap.State, since.In(a.loc), a.now())
	a.out.Total(snap.Window.Label, snap.Total)
	a.out.Line("")
	a.out.Title(snap.Date)
	_ = a.out.Entries(snap.Days, a.loc, render.FormatTable)
	a.out.Muted("Updated " + snap.UpdatedAt.In(a.loc).Format("15:04:05"))
}
