package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/render"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	entriesDate   string
	entriesFormat string
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List the work sessions of one day",
	Args:  cobra.NoArgs,
	RunE:  runEntries,
}

func init() {
	entriesCmd.Flags().StringVar(&entriesDate, "date", "", "Date to list (YYYY-MM-DD); defaults to today")
	entriesCmd.Flags().StringVar(&entriesFormat, "format", "table", "Output format: table, json, yaml, csv")
}

func runEntries(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(entriesFormat)
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	date := entriesDate
	if date == "" {
		date = a.today()
	} else if _, err := timecalc.ParseDate(date, a.loc); err != nil {
		return err
	}

	days, _, err := a.dash.Entries(cmd.Context(), date)
	if err != nil {
		return err
	}
	if format == render.FormatTable {
		a.out.Title(date)
	}
	return a.out.Entries(days, a.loc, format)
}
