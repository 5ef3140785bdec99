package cmd

import (
	"github.com/spf13/cobra"
)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in",
	Args:  cobra.NoArgs,
	RunE:  runIn,
}

func runIn(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if _, err := a.tracker.Refresh(ctx); err != nil {
		return err
	}
	if err := a.tracker.ClockIn(ctx); err != nil {
		return err
	}
	a.out.Line("Clocked in at %s.", a.now().Format("15:04"))
	return nil
}
