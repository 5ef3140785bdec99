package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/render"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	hoursPeriod string
	hoursMonth  string
	hoursFrom   string
	hoursTo     string
	hoursFormat string
)

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Show total hours worked in a period",
	Args:  cobra.NoArgs,
	RunE:  runHours,
}

func init() {
	hoursCmd.Flags().StringVar(&hoursPeriod, "period", timecalc.PeriodToday, "Period: today, this-week, this-month")
	hoursCmd.Flags().StringVar(&hoursMonth, "month", "", "Calendar month (YYYY-MM)")
	hoursCmd.Flags().StringVar(&hoursFrom, "from", "", "Start date (YYYY-MM-DD); requires --to")
	hoursCmd.Flags().StringVar(&hoursTo, "to", "", "End date (YYYY-MM-DD); requires --from")
	hoursCmd.Flags().StringVar(&hoursFormat, "format", "table", "Output format: table, json, yaml")
}

// hoursReport is the machine-readable form of the hours command.
type hoursReport struct {
	Label      string  `json:"label" yaml:"label"`
	Start      string  `json:"start_date" yaml:"start_date"`
	End        string  `json:"end_date" yaml:"end_date"`
	TotalHours float64 `json:"total_hours" yaml:"total_hours"`
}

func runHours(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(hoursFormat)
	if err != nil {
		return err
	}
	if format == render.FormatCSV {
		return fmt.Errorf("csv is not available for hours; use table, json or yaml")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w, err := resolveWindow(hoursPeriod, hoursMonth, hoursFrom, hoursTo, a.now())
	if err != nil {
		return err
	}

	total, err := a.dash.Hours(cmd.Context(), w)
	if err != nil {
		return err
	}

	report := hoursReport{Label: w.Label, Start: w.Start, End: w.End, TotalHours: total}
	switch format {
	case render.FormatJSON:
		return a.out.JSON(report)
	case render.FormatYAML:
		return a.out.YAML(report)
	}
	a.out.Total(w.Label, total)
	return nil
}

// resolveWindow picks the aggregation window from the mutually exclusive
// selectors: an explicit range, a month, or a named period.
func resolveWindow(period, month, from, to string, now time.Time) (timecalc.Window, error) {
	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return timecalc.Window{}, fmt.Errorf("--from and --to must be given together")
		}
		if month != "" {
			return timecalc.Window{}, fmt.Errorf("--month cannot be combined with --from/--to")
		}
		return timecalc.CustomWindow(from, to)
	case month != "":
		if _, err := time.Parse(timecalc.MonthLayout, month); err != nil {
			return timecalc.Window{}, fmt.Errorf("invalid --month %q (want YYYY-MM)", month)
		}
		return timecalc.ParsePeriod(month, now)
	}
	return timecalc.ParsePeriod(period, now)
}
