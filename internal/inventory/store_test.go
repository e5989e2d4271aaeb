package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
)

// memPersister is an in-memory Persister whose saves can be made to fail.
type memPersister struct {
	snap  inventory.Snapshot
	saves int
	fail  error
}

func (m *memPersister) Load() (inventory.Snapshot, error) { return m.snap, nil }

func (m *memPersister) Save(s inventory.Snapshot) error {
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.snap = s
	return nil
}

func newStore(t *testing.T) (*inventory.Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	s, err := inventory.Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, p
}

func server(name, ip string) models.Server {
	return models.Server{
		Name:      name,
		IPAddress: ip,
		OS:        models.OSLinux,
		InfraType: models.InfraVirtual,
	}
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	s, p := newStore(t)

	in := server("web01", "10.0.0.1")
	in.Disk = "2 TB"
	got, err := s.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" {
		t.Error("expected an id")
	}
	if got.Disk != models.FixedDisk {
		t.Errorf("Disk: got %q, want %q", got.Disk, models.FixedDisk)
	}
	if got.CPU != models.DefaultCPU || got.Memory != models.DefaultMemory || got.VCenterName != models.DefaultVCenter {
		t.Errorf("defaults: got cpu %q memory %q vcenter %q", got.CPU, got.Memory, got.VCenterName)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
	if p.saves != 1 || len(p.snap.Servers) != 1 {
		t.Errorf("expected one save with one server, got %d saves / %d servers", p.saves, len(p.snap.Servers))
	}

	fetched, err := s.Get(got.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched != got {
		t.Errorf("Get returned %+v, want %+v", fetched, got)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Server)
	}{
		{"empty name", func(s *models.Server) { s.Name = "  " }},
		{"ipv6 address", func(s *models.Server) { s.IPAddress = "fe80::1" }},
		{"not an address", func(s *models.Server) { s.IPAddress = "web01" }},
		{"unknown os", func(s *models.Server) { s.OS = "BSD" }},
		{"unknown infra", func(s *models.Server) { s.InfraType = "Cloud" }},
		{"bad install date", func(s *models.Server) { s.InstallationDate = "12.05.2023" }},
		{"bad patch date", func(s *models.Server) { s.LastPatchedDate = "yesterday" }},
		{"zero cpu", func(s *models.Server) { s.CPU = "0" }},
		{"negative cpu", func(s *models.Server) { s.CPU = "-4" }},
		{"non-numeric cpu", func(s *models.Server) { s.CPU = "abc" }},
		{"cpu above 256", func(s *models.Server) { s.CPU = "999999" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newStore(t)
			in := server("web01", "10.0.0.1")
			tt.mutate(&in)
			_, err := s.Create(in)
			var ve *inventory.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if p.saves != 0 || len(s.List()) != 0 {
				t.Error("invalid record must not be stored")
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s, _ := newStore(t)
	created, err := s.Create(server("web01", "10.0.0.1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	change := server("web01-renamed", "10.0.0.9")
	change.Owner = "ops"
	updated, err := s.Update(created.ID, change)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "web01-renamed" || updated.Owner != "ops" {
		t.Errorf("Update: got %+v", updated)
	}

	if _, err := s.Update("missing", change); !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("Update missing: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(created.ID); !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestImport_DeduplicatesByAddress(t *testing.T) {
	s, _ := newStore(t)
	if _, err := s.Create(server("existing", "10.0.0.1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := s.Import([]models.Server{
		server("dup-of-existing", "10.0.0.1"),
		server("new-a", "10.0.0.2"),
		server("dup-in-batch", "10.0.0.2"),
		server("v6", "fe80::2"),
		server("new-b", "10.0.0.3"),
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Added) != 2 || res.Duplicates != 2 || res.Invalid != 1 {
		t.Errorf("result: got %d added / %d duplicates / %d invalid", len(res.Added), res.Duplicates, res.Invalid)
	}

	all := s.List()
	names := []string{}
	for _, srv := range all {
		names = append(names, srv.Name)
		if srv.ID == "" || srv.Disk != models.FixedDisk {
			t.Errorf("%s: id %q disk %q", srv.Name, srv.ID, srv.Disk)
		}
	}
	want := []string{"existing", "new-a", "new-b"}
	if len(names) != len(want) {
		t.Fatalf("names: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names: got %v, want %v", names, want)
			break
		}
	}
}

func TestImport_SaveFailureLeavesStoreUnchanged(t *testing.T) {
	s, p := newStore(t)
	p.fail = errors.New("disk full")

	if _, err := s.Import([]models.Server{server("a", "10.0.0.1")}); err == nil {
		t.Fatal("expected save error")
	}
	if len(s.List()) != 0 {
		t.Error("store should be unchanged after a failed save")
	}
}

func TestOpen_LoadsPersistedState(t *testing.T) {
	p := &memPersister{snap: inventory.Snapshot{
		Servers:  []models.Server{{ID: "a", Name: "a", IPAddress: "10.0.0.1"}},
		VCenters: []models.VCenter{{ID: "v", Name: "VC-01"}},
	}}
	s, err := inventory.Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.List()) != 1 || len(s.VCenters()) != 1 {
		t.Errorf("expected persisted state, got %d servers / %d vcenters", len(s.List()), len(s.VCenters()))
	}
}

func TestBulkOperations(t *testing.T) {
	s, _ := newStore(t)
	s.SetClock(func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) })
	var ids []string
	for _, in := range []models.Server{
		server("a", "10.0.0.1"),
		server("b", "10.0.0.2"),
		server("c", "10.0.0.3"),
	} {
		created, err := s.Create(in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, created.ID)
	}

	dept := "Finance"
	backed := true
	n, err := s.BulkUpdate([]string{ids[0], ids[2], "unknown"}, inventory.Patch{Department: &dept, IsBackedUp: &backed})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if n != 2 {
		t.Errorf("BulkUpdate touched %d, want 2", n)
	}
	for i, id := range ids {
		srv, _ := s.Get(id)
		want := i != 1
		if (srv.Department == dept) != want || srv.IsBackedUp != want {
			t.Errorf("%s: department %q backed up %v", srv.Name, srv.Department, srv.IsBackedUp)
		}
	}

	empty := " "
	if _, err := s.BulkUpdate(ids, inventory.Patch{VCenterName: &empty}); err == nil {
		t.Error("empty vCenterName should be rejected")
	}
	if _, err := s.BulkUpdate(ids, inventory.Patch{}); err == nil {
		t.Error("empty patch should be rejected")
	}

	if n, err := s.BulkMarkPatched(ids[:1]); err != nil || n != 1 {
		t.Fatalf("BulkMarkPatched: n=%d err=%v", n, err)
	}
	if srv, _ := s.Get(ids[0]); srv.LastPatchedDate != "2024-03-10" {
		t.Errorf("LastPatchedDate: got %q", srv.LastPatchedDate)
	}

	n, err = s.BulkDelete(ids[:2])
	if err != nil || n != 2 {
		t.Fatalf("BulkDelete: n=%d err=%v", n, err)
	}
	if left := s.List(); len(left) != 1 || left[0].ID != ids[2] {
		t.Errorf("after BulkDelete: got %+v", left)
	}
}
