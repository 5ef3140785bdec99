package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/render"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether you are clocked in and today's total",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Clock in if out, out if in",
	Args:  cobra.NoArgs,
	RunE:  runToggle,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	today := a.today()
	w, err := timecalc.ParsePeriod(timecalc.PeriodToday, a.now())
	if err != nil {
		return err
	}
	snap, err := a.dash.Refresh(cmd.Context(), w, today)
	if err != nil {
		return err
	}
	since, _ := render.OpenSince(snap.Days)
	a.out.ClockState(snap.State, since.In(a.loc), a.now())
	a.out.Total(w.Label, snap.Total)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	today := a.today()
	w, err := timecalc.ParsePeriod(timecalc.PeriodToday, a.now())
	if err != nil {
		return err
	}

	if _, err := a.tracker.Refresh(ctx); err != nil {
		return err
	}
	snap, err := a.dash.Toggle(ctx, w, today)
	if err != nil {
		return err
	}
	since, _ := render.OpenSince(snap.Days)
	a.out.ClockState(snap.State, since.In(a.loc), a.now())
	a.out.Total(w.Label, snap.Total)
	return nil
}
