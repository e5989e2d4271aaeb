// Package app implements invctl. It parses server lists and spreadsheets
// offline, loads them into the service database, or pushes them to a
// running inventory service.
package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
	"gopkg.in/yaml.v3"
)

const Name string = "invctl"

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// options are the flags shared by the parsing commands.
type options struct {
	output string
	dbPath string
}

func NewCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           Name,
		Short:         "Parse and load server inventory data",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewParseCommand())
	root.AddCommand(NewIngestCommand())
	root.AddCommand(NewTemplateCommand())
	root.AddCommand(NewPushCommand())
	root.AddCommand(NewStatsCommand())
	return root
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", FormatJSON, "output format: json or yaml")
	cmd.Flags().StringVar(&o.dbPath, "db", "",
		"import the parsed servers into this SQLite database instead of only printing them")
}

func (o *options) validate() error {
	switch o.output {
	case FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use json or yaml", o.output)
	}
}

// report is what the parsing commands print.
type report struct {
	Source     string          `json:"source"`
	Seen       int             `json:"seen"`
	Rejected   int             `json:"rejected"`
	Duplicates int             `json:"duplicates"`
	Servers    []models.Server `json:"servers"`
}

// finish imports the parsed servers when a database is configured and
// prints the report.
func (o *options) finish(cmd *cobra.Command, rep report) error {
	if rep.Servers == nil {
		rep.Servers = []models.Server{}
	}
	if o.dbPath != "" {
		res, err := importInto(o.dbPath, rep.Servers)
		if err != nil {
			return err
		}
		rep.Rejected += res.Invalid
		rep.Duplicates = res.Duplicates
		rep.Servers = res.Added
		if rep.Servers == nil {
			rep.Servers = []models.Server{}
		}
	}
	return render(cmd.OutOrStdout(), o.output, rep)
}

func importInto(path string, servers []models.Server) (inventory.ImportResult, error) {
	d, err := db.New(path)
	if err != nil {
		return inventory.ImportResult{}, fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	store, err := inventory.Open(d)
	if err != nil {
		return inventory.ImportResult{}, err
	}
	return store.Import(servers)
}

// render writes v as indented JSON or as YAML. YAML output goes through the
// JSON encoding so both formats use the same keys.
func render(w io.Writer, format string, v any) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
