package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/reconcile"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List the months that have timesheet data",
	Args:  cobra.NoArgs,
	RunE:  runMonths,
}

func runMonths(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ts, err := a.client.Timesheets(cmd.Context(), timecalc.Window{})
	if err != nil {
		return err
	}

	now := a.now()
	earliest := now
	if d, ok := reconcile.EarliestDate(ts.Events); ok {
		if t, err := timecalc.ParseDate(d, a.loc); err == nil {
			earliest = t
		}
	}
	for _, m := range timecalc.MonthsSince(earliest, now) {
		a.out.Line("%s", m)
	}
	return nil
}
