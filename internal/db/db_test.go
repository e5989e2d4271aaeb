package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// sampleServer returns a fully-populated Server for use in tests.
func sampleServer(id, ip string) models.Server {
	return models.Server{
		ID:               id,
		Name:             "SRV-" + id,
		IPAddress:        ip,
		OS:               models.OSLinux,
		OSVersion:        "ubuntu 22.04",
		CPU:              "4",
		Memory:           "16 GB",
		Disk:             models.FixedDisk,
		InfraType:        models.InfraPhysical,
		VCenterName:      "VC-IST",
		InstallationDate: "2023-05-12",
		LastPatchedDate:  "2024-01-15",
		Department:       "Core Banking",
		Owner:            "Ahmet Yılmaz",
		TechTeam:         "DevOps Team",
		IsBackedUp:       true,
		Notes:            "primary",
		UpdatedAt:        time.Date(2024, 2, 3, 4, 5, 6, 789, time.UTC),
	}
}

func TestNew(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	d := newTestDB(t)
	snap, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Servers) != 0 || len(snap.VCenters) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestNew_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "inventory.db")
	if d, err := db.New(path); err == nil {
		d.Close()
		t.Fatal("expected an error for a database in a missing directory")
	}
}

func TestSave_ServerRoundTrip(t *testing.T) {
	d := newTestDB(t)
	want := sampleServer("a", "10.0.0.1")

	if err := d.Save(inventory.Snapshot{Servers: []models.Server{want}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := d.LoadServers()
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 server, got %d", len(got))
	}
	if !got[0].UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt: got %v, want %v", got[0].UpdatedAt, want.UpdatedAt)
	}
	got[0].UpdatedAt = want.UpdatedAt
	if got[0] != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], want)
	}
}

func TestSave_ReplacesAndKeepsOrder(t *testing.T) {
	d := newTestDB(t)
	first := []models.Server{sampleServer("z", "10.0.0.1"), sampleServer("a", "10.0.0.2")}
	if err := d.Save(inventory.Snapshot{Servers: first}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := []models.Server{sampleServer("m", "10.0.0.3"), sampleServer("z", "10.0.0.1"), sampleServer("b", "10.0.0.4")}
	if err := d.Save(inventory.Snapshot{Servers: second}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := d.LoadServers()
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	wantIDs := []string{"m", "z", "b"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d servers, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestSave_DuplicateIDRollsBack(t *testing.T) {
	d := newTestDB(t)
	prev := inventory.Snapshot{
		Servers:  []models.Server{sampleServer("a", "10.0.0.1")},
		VCenters: []models.VCenter{{ID: "v1", Name: "VC-IST"}},
	}
	if err := d.Save(prev); err != nil {
		t.Fatalf("Save: %v", err)
	}

	err := d.Save(inventory.Snapshot{Servers: []models.Server{sampleServer("b", "10.0.0.2"), sampleServer("b", "10.0.0.3")}})
	if err == nil {
		t.Fatal("expected error on duplicate ID, got nil")
	}

	got, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Servers) != 1 || got.Servers[0].ID != "a" {
		t.Errorf("failed save should leave previous servers, got %+v", got.Servers)
	}
	if len(got.VCenters) != 1 || got.VCenters[0].ID != "v1" {
		t.Errorf("failed save should leave previous vCenters, got %+v", got.VCenters)
	}
}

func TestVCenters_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	want := []models.VCenter{
		{ID: "v2", Name: "VC-ANK", Location: "Ankara"},
		{ID: "v1", Name: "VC-IST", Location: "Istanbul", Description: "primary"},
	}
	if err := d.Save(inventory.Snapshot{VCenters: want}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := d.LoadVCenters()
	if err != nil {
		t.Fatalf("LoadVCenters: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d vCenters, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vCenter %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")

	d, err := db.New(path)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	store, err := inventory.Open(d)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	if _, err := store.AddVCenter(models.VCenter{Name: "VC-IST", Location: "Istanbul"}); err != nil {
		t.Fatalf("AddVCenter: %v", err)
	}
	res, err := store.Import([]models.Server{sampleServer("", "10.0.0.1"), sampleServer("", "10.0.0.2")})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Added) != 2 {
		t.Fatalf("expected 2 added, got %d", len(res.Added))
	}
	d.Close()

	d2, err := db.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { d2.Close() })
	reopened, err := inventory.Open(d2)
	if err != nil {
		t.Fatalf("inventory.Open after reopen: %v", err)
	}
	servers := reopened.List()
	if len(servers) != 2 || servers[0].ID != res.Added[0].ID || servers[1].IPAddress != "10.0.0.2" {
		t.Errorf("reopened servers: got %+v", servers)
	}
	if vcs := reopened.VCenters(); len(vcs) != 1 || vcs[0].Name != "VC-IST" {
		t.Errorf("reopened vCenters: got %+v", vcs)
	}
}
