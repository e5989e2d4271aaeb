package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tphummel/server_inventory/internal/ingest"
)

func NewTemplateCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the XLSX import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := ingest.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "f", ingest.TemplateFilename, "path of the template file to write")
	return cmd
}
