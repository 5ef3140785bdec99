package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/storage"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	exportFormat string
	exportMonth  string
	exportFrom   string
	exportTo     string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a timesheet as CSV or PDF",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "File format: csv, pdf")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Calendar month (YYYY-MM); defaults to the current month")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (YYYY-MM-DD); requires --to")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (YYYY-MM-DD); requires --from")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", `Output file; "-" writes to stdout`)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := model.ExportFormat(exportFormat)
	if format != model.ExportCSV && format != model.ExportPDF {
		return fmt.Errorf("unknown export format %q (want csv or pdf)", exportFormat)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w, err := resolveWindow(timecalc.PeriodThisMonth, exportMonth, exportFrom, exportTo, a.now())
	if err != nil {
		return err
	}

	req := model.ExportRequest{StartDate: w.Start, EndDate: w.End, Format: format}
	f, err := a.client.Export(cmd.Context(), req)
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		_, err := cmd.OutOrStdout().Write(f.Data)
		return err
	}
	path := exportPath(exportOutput, a.cfg.ExportDir, f.Name)
	if err := storage.WriteFileAtomic(path, f.Data, 0o644); err != nil {
		return storageErr(err)
	}
	a.out.Line("Saved %s (%d bytes).", path, len(f.Data))
	return nil
}

// exportPath is output if given, else name inside dir.
func exportPath(output, dir, name string) string {
	if output != "" {
		return output
	}
	return filepath.Join(dir, name)
}
