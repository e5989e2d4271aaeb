package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tphummel/server_inventory/internal/ingest"
	"github.com/tphummel/server_inventory/internal/metrics"
)

func NewIngestCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Parse an XLSX or CSV inventory spreadsheet",
		Long: `Ingest reads the first sheet of an .xlsx file, or a .csv file, whose header
row names the columns of the import template. The "Sunucu Adı" and
"IP Adresi" columns are required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			servers, res, err := ingest.IngestSpreadsheet(args[0], f)
			if err != nil {
				return err
			}
			return o.finish(cmd, report{
				Source:   metrics.SourceSpreadsheet,
				Seen:     res.Rows,
				Rejected: res.Skipped,
				Servers:  servers,
			})
		},
	}
	o.addFlags(cmd)
	return cmd
}
