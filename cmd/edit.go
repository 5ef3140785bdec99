package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	editDate string
	editIn   string
	editOut  string
)

var editCmd = &cobra.Command{
	Use:   "edit <key>",
	Short: "Change the clock-in and clock-out times of an entry",
	Long: `Change the times of an entry. <key> is the KEY column shown by
"punch entries". Times are HH:MM on --date, which defaults to the entry's date.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	editCmd.Flags().StringVar(&editDate, "date", "", "Date of the entry (YYYY-MM-DD)")
	editCmd.Flags().StringVar(&editIn, "in", "", "New clock-in time (HH:MM)")
	editCmd.Flags().StringVar(&editOut, "out", "", "New clock-out time (HH:MM)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runEdit(cmd *cobra.Command, args []string) error {
	key := args[0]
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	day := a.now()
	switch {
	case editDate != "":
		if day, err = timecalc.ParseDate(editDate, a.loc); err != nil {
			return err
		}
	default:
		at, err := timecalc.ParseTimestamp(key)
		if err != nil {
			return fmt.Errorf("cannot tell the entry's date from %q; pass --date", key)
		}
		day = timecalc.StartOfDay(at.In(a.loc))
	}

	upd, err := model.NewEntryUpdate(key, day, editIn, editOut)
	if err != nil {
		return err
	}
	if err := a.client.UpdateEntry(cmd.Context(), upd); err != nil {
		return err
	}

	if upd.Hours != nil {
		a.out.Line("Updated entry %s (%s).", key, model.FormatHours(*upd.Hours))
	} else {
		a.out.Line("Updated entry %s.", key)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if !deleteYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete entry %s? [y/N] ", key)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			a.out.Line("Cancelled.")
			return nil
		}
	}

	if err := a.client.DeleteEntry(cmd.Context(), key); err != nil {
		return err
	}
	a.out.Line("Deleted entry %s.", key)
	return nil
}
