package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/render"
)

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out",
	Args:  cobra.NoArgs,
	RunE:  runOut,
}

func runOut(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// Loads the state and today's open session in one round.
	days, _, err := a.dash.Entries(ctx, a.today())
	if err != nil {
		return err
	}
	if err := a.tracker.ClockOut(ctx); err != nil {
		return err
	}

	now := a.now()
	if since, ok := render.OpenSince(days); ok {
		elapsed := int64(now.Sub(since).Seconds())
		a.out.Line("Clocked out at %s. Session: %s", now.Format("15:04"), formatElapsed(elapsed))
		return nil
	}
	a.out.Line("Clocked out at %s.", now.Format("15:04"))
	return nil
}

func formatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
