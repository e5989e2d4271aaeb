package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/handlers"
	"github.com/tphummel/server_inventory/internal/ingest"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
	"gopkg.in/yaml.v3"
)

// execute runs invctl with args and stdin and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) report {
	t.Helper()
	var rep report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	return rep
}

func TestParse_Stdin(t *testing.T) {
	out, err := execute(t, "SRV01 10.0.0.5 win2019 4 8GB backup\nno address here\n", "parse")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Source != "text" {
		t.Errorf("Source: got %q, want text", rep.Source)
	}
	if len(rep.Servers) != 1 || rep.Servers[0].IPAddress != "10.0.0.5" {
		t.Fatalf("Servers: %+v", rep.Servers)
	}
	if rep.Rejected < 1 {
		t.Errorf("Rejected: got %d, want at least 1", rep.Rejected)
	}
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.txt")
	if err := os.WriteFile(path, []byte("web01 10.0.0.1 ubuntu\nweb02 10.0.0.2 centos\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "", "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rep := decodeReport(t, out); len(rep.Servers) != 2 {
		t.Errorf("Servers: got %d, want 2", len(rep.Servers))
	}
}

func TestParse_NoValidRecords(t *testing.T) {
	_, err := execute(t, "SRV02 fe80::1 linux\n", "parse", "-")
	if !errors.Is(err, ingest.ErrNoValidRecords) {
		t.Errorf("expected ErrNoValidRecords, got %v", err)
	}
}

func TestParse_YAMLOutput(t *testing.T) {
	out, err := execute(t, "web01 10.0.0.1 ubuntu\n", "parse", "-o", "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	servers, ok := doc["servers"].([]any)
	if !ok || len(servers) != 1 {
		t.Fatalf("servers: %v", doc["servers"])
	}
	if ip := servers[0].(map[string]any)["ipAddress"]; ip != "10.0.0.1" {
		t.Errorf("ipAddress: got %v", ip)
	}
}

func TestParse_BadOutputFormat(t *testing.T) {
	if _, err := execute(t, "web01 10.0.0.1\n", "parse", "-o", "xml"); err == nil {
		t.Error("expected an error for an unknown output format")
	}
}

func TestParse_IntoDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	input := "web01 10.0.0.1 ubuntu\nweb02 10.0.0.2 centos\n"

	out, err := execute(t, input, "parse", "--db", dbPath)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if rep := decodeReport(t, out); len(rep.Servers) != 2 || rep.Duplicates != 0 {
		t.Errorf("first import: %+v", rep)
	}

	out, err = execute(t, input, "parse", "--db", dbPath)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if rep := decodeReport(t, out); len(rep.Servers) != 0 || rep.Duplicates != 2 {
		t.Errorf("second import: %+v", rep)
	}

	d, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	defer d.Close()
	servers, err := d.LoadServers()
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(servers) != 2 {
		t.Errorf("stored servers: got %d, want 2", len(servers))
	}
}

func TestIngest_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.csv")
	csv := "Sunucu Adı,IP Adresi,OS\nweb01,10.0.0.1,Linux\nv6,fe80::1,Linux\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "", "ingest", path)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Source != "spreadsheet" || rep.Seen != 2 || rep.Rejected != 1 || len(rep.Servers) != 1 {
		t.Errorf("report: %+v", rep)
	}
}

func TestIngest_Errors(t *testing.T) {
	dir := t.TempDir()
	noHeaders := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(noHeaders, []byte("Name,IP\nweb01,10.0.0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "servers.txt")
	if err := os.WriteFile(text, []byte("web01 10.0.0.1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mhe *ingest.MissingHeadersError
	if _, err := execute(t, "", "ingest", noHeaders); !errors.As(err, &mhe) {
		t.Errorf("missing headers: got %v", err)
	}
	if _, err := execute(t, "", "ingest", text); !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Errorf("unsupported format: got %v", err)
	}
	if _, err := execute(t, "", "ingest", filepath.Join(dir, "missing.xlsx")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := execute(t, "", "ingest"); err == nil {
		t.Error("expected an error without a FILE argument")
	}
}

func TestTemplate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	out, err := execute(t, "", "template", "-f", path)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output should name the file, got %q", out)
	}

	out, err = execute(t, "", "ingest", path)
	if err != nil {
		t.Fatalf("ingest template: %v", err)
	}
	rep := decodeReport(t, out)
	if len(rep.Servers) != 1 || rep.Servers[0].IPAddress != ingest.TemplateExample[ingest.HeaderIPAddress] {
		t.Errorf("template servers: %+v", rep.Servers)
	}
}

func newService(t *testing.T) (*httptest.Server, *inventory.Store) {
	t.Helper()
	store, err := inventory.Open(nil)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	srv := httptest.NewServer((&handlers.Handler{Store: store}).Routes("push-token"))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestPush_TextAndSpreadsheet(t *testing.T) {
	srv, store := newService(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "servers.csv")
	if err := os.WriteFile(csvPath, []byte("Sunucu Adı,IP Adresi\nweb02,10.0.0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "web01 10.0.0.1 ubuntu\n", "push", "-", "--server", srv.URL, "--token", "push-token")
	if err != nil {
		t.Fatalf("push text: %v", err)
	}
	var res struct {
		Source string          `json:"source"`
		Added  []models.Server `json:"added"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Source != "text" || len(res.Added) != 1 {
		t.Errorf("text push: %+v", res)
	}

	if _, err := execute(t, "", "push", csvPath, "--server", srv.URL, "--token", "push-token"); err != nil {
		t.Fatalf("push csv: %v", err)
	}
	if n := len(store.List()); n != 2 {
		t.Errorf("service inventory: got %d servers, want 2", n)
	}

	out, err = execute(t, "", "stats", "--server", srv.URL, "--token", "push-token")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var st models.Stats
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.TotalServers != 2 {
		t.Errorf("TotalServers: got %d, want 2", st.TotalServers)
	}
}

func TestPush_Errors(t *testing.T) {
	srv, _ := newService(t)

	if _, err := execute(t, "web01 10.0.0.1", "push", "-", "--server", srv.URL, "--token", ""); err == nil {
		t.Error("expected an error without a token")
	}
	if _, err := execute(t, "web01 10.0.0.1", "push", "-", "--server", srv.URL, "--token", "wrong"); err == nil {
		t.Error("expected an error with a wrong token")
	}
	if _, err := execute(t, "SRV02 fe80::1", "push", "-", "--server", srv.URL, "--token", "push-token"); err == nil {
		t.Error("expected an error when nothing can be imported")
	}
}
