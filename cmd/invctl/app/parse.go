package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tphummel/server_inventory/internal/ingest"
	"github.com/tphummel/server_inventory/internal/metrics"
)

func NewParseCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "parse [FILE|-]",
		Short: "Parse a free-text server list, one server per line",
		Long: `Parse reads a free-text server list and prints the servers it recognizes.
Lines without a dotted-quad IPv4 address, or containing a colon, are rejected.
With no FILE, or when FILE is -, the list is read from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			servers, res, err := ingest.ParseText(string(text))
			if err != nil {
				return err
			}
			return o.finish(cmd, report{
				Source:   metrics.SourceText,
				Seen:     res.Lines,
				Rejected: res.Rejected,
				Servers:  servers,
			})
		},
	}
	o.addFlags(cmd)
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return b, nil
}
