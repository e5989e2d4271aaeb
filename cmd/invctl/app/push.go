package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tphummel/server_inventory/internal/apiclient"
)

// remote holds the flags of commands that talk to a running service.
type remote struct {
	server string
	token  string
	output string
}

func (r *remote) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.server, "server", envOr("INVENTORY_URL", "http://localhost:8080"), "base URL of the inventory service")
	cmd.Flags().StringVar(&r.token, "token", os.Getenv("API_TOKEN"), "bearer token (default $API_TOKEN)")
	cmd.Flags().StringVarP(&r.output, "output", "o", FormatJSON, "output format: json or yaml")
}

func (r *remote) client() (*apiclient.Client, error) {
	if r.token == "" {
		return nil, fmt.Errorf("a token is required: pass --token or set API_TOKEN")
	}
	if r.output != FormatJSON && r.output != FormatYAML {
		return nil, fmt.Errorf("unknown output format %q: use json or yaml", r.output)
	}
	return apiclient.NewClient(r.server, r.token), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func NewPushCommand() *cobra.Command {
	var r remote
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Upload a server list or spreadsheet to a running inventory service",
		Long: `Push sends FILE to the import endpoints of the inventory service. Files
ending in .xlsx, .xlsm or .csv go to the spreadsheet import; anything else
is sent as a free-text list. When FILE is -, a free-text list is read from
standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var res *apiclient.ImportResult
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".xlsx", ".xlsm", ".csv":
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				res, err = c.ImportSpreadsheet(ctx, args[0], f)
				if err != nil {
					return err
				}
			default:
				text, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				res, err = c.ImportText(ctx, string(text))
				if err != nil {
					return err
				}
			}
			return render(cmd.OutOrStdout(), r.output, res)
		},
	}
	r.addFlags(cmd)
	return cmd
}

func NewStatsCommand() *cobra.Command {
	var r remote
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics of a running inventory service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.client()
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), r.output, st)
		},
	}
	r.addFlags(cmd)
	return cmd
}
