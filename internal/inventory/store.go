// Package inventory holds the ordered, id-keyed collection of servers and
// vCenters that ingestion and manual edits write into.
package inventory

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/server_inventory/internal/models"
	"github.com/tphummel/server_inventory/internal/normalize"
)

// ErrNotFound is returned when no server or vCenter has the requested id.
var ErrNotFound = errors.New("not found")

// ValidationError describes a record that cannot be stored.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Snapshot is the full persisted state of the inventory.
type Snapshot struct {
	Servers  []models.Server
	VCenters []models.VCenter
}

// Persister loads the inventory at startup and saves it after every
// mutation.
type Persister interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// Store is the in-memory inventory. Every mutation is saved through the
// Persister first; the in-memory state only changes when the save succeeds.
type Store struct {
	mu       sync.RWMutex
	p        Persister
	servers  []models.Server
	vcenters []models.VCenter

	now   func() time.Time
	newID func() string
}

// Open loads the inventory from p. A nil Persister gives a memory-only
// store.
func Open(p Persister) (*Store, error) {
	s := &Store{
		p:     p,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	if p == nil {
		return s, nil
	}
	snap, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	s.servers = snap.Servers
	s.vcenters = snap.VCenters
	return s, nil
}

// commit persists and then installs the next state. Callers hold s.mu.
func (s *Store) commit(servers []models.Server, vcenters []models.VCenter) error {
	if s.p != nil {
		if err := s.p.Save(Snapshot{Servers: servers, VCenters: vcenters}); err != nil {
			return fmt.Errorf("save inventory: %w", err)
		}
	}
	s.servers = servers
	s.vcenters = vcenters
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.servers, func(srv models.Server) bool { return srv.ID == id })
}

// List returns a copy of every server in insertion order.
func (s *Store) List() []models.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.servers)
}

// Get returns the server with the given id.
func (s *Store) Get(id string) (models.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Server{}, ErrNotFound
	}
	return s.servers[i], nil
}

// Create validates srv, assigns it a new id and appends it.
func (s *Store) Create(srv models.Server) (models.Server, error) {
	if err := prepare(&srv); err != nil {
		return models.Server{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	srv.ID = s.newID()
	srv.UpdatedAt = s.now()
	if err := s.commit(append(slices.Clone(s.servers), srv), s.vcenters); err != nil {
		return models.Server{}, err
	}
	return srv, nil
}

// Update replaces every mutable field of the server with the given id.
func (s *Store) Update(id string, srv models.Server) (models.Server, error) {
	if err := prepare(&srv); err != nil {
		return models.Server{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Server{}, ErrNotFound
	}
	srv.ID = id
	srv.UpdatedAt = s.now()
	next := slices.Clone(s.servers)
	next[i] = srv
	if err := s.commit(next, s.vcenters); err != nil {
		return models.Server{}, err
	}
	return srv, nil
}

// Delete removes the server with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	return s.commit(slices.Delete(slices.Clone(s.servers), i, i+1), s.vcenters)
}

// ImportResult reports how an Import batch was applied.
type ImportResult struct {
	Added      []models.Server `json:"added"`
	Duplicates int             `json:"duplicates"`
	Invalid    int             `json:"invalid"`
}

// Import appends ingested records. Records whose IP address is already in
// the store, or earlier in the same batch, are dropped as duplicates.
// Records without a usable IPv4 address are dropped as invalid.
func (s *Store) Import(records []models.Server) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.servers)+len(records))
	for _, srv := range s.servers {
		seen[srv.IPAddress] = true
	}

	var res ImportResult
	at := s.now()
	for _, rec := range records {
		if normalize.IsIPv6Like(rec.IPAddress) || !normalize.IsIPv4(rec.IPAddress) {
			res.Invalid++
			continue
		}
		if seen[rec.IPAddress] {
			res.Duplicates++
			continue
		}
		seen[rec.IPAddress] = true
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		rec.Disk = models.FixedDisk
		rec.UpdatedAt = at
		res.Added = append(res.Added, rec)
	}
	if len(res.Added) == 0 {
		return res, nil
	}
	if err := s.commit(append(slices.Clone(s.servers), res.Added...), s.vcenters); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// Patch is a bulk field update. Nil fields are left unchanged.
type Patch struct {
	VCenterName     *string `json:"vCenterName,omitempty"`
	Department      *string `json:"department,omitempty"`
	IsBackedUp      *bool   `json:"isBackedUp,omitempty"`
	LastPatchedDate *string `json:"lastPatchedDate,omitempty"`
}

func (p Patch) validate() error {
	if p.VCenterName == nil && p.Department == nil && p.IsBackedUp == nil && p.LastPatchedDate == nil {
		return invalid("patch has no fields")
	}
	if p.VCenterName != nil && strings.TrimSpace(*p.VCenterName) == "" {
		return invalid("vCenterName must not be empty")
	}
	if p.Department != nil && strings.TrimSpace(*p.Department) == "" {
		return invalid("department must not be empty")
	}
	if p.LastPatchedDate != nil && !isISODate(*p.LastPatchedDate) {
		return invalid("lastPatchedDate must be YYYY-MM-DD")
	}
	return nil
}

func (p Patch) apply(srv *models.Server) {
	if p.VCenterName != nil {
		srv.VCenterName = strings.TrimSpace(*p.VCenterName)
	}
	if p.Department != nil {
		srv.Department = strings.TrimSpace(*p.Department)
	}
	if p.IsBackedUp != nil {
		srv.IsBackedUp = *p.IsBackedUp
	}
	if p.LastPatchedDate != nil {
		srv.LastPatchedDate = *p.LastPatchedDate
	}
}

// BulkUpdate applies p to every server whose id is in ids and returns how
// many were changed. Unknown ids are ignored.
func (s *Store) BulkUpdate(ids []string, p Patch) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	want := idSet(ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := slices.Clone(s.servers)
	at := s.now()
	n := 0
	for i := range next {
		if !want[next[i].ID] {
			continue
		}
		p.apply(&next[i])
		next[i].UpdatedAt = at
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.commit(next, s.vcenters); err != nil {
		return 0, err
	}
	return n, nil
}

// BulkMarkPatched sets the last patch date of the selected servers to the
// current day.
func (s *Store) BulkMarkPatched(ids []string) (int, error) {
	today := s.now().Format(models.DateLayout)
	return s.BulkUpdate(ids, Patch{LastPatchedDate: &today})
}

// BulkDelete removes every server whose id is in ids and returns how many
// were removed.
func (s *Store) BulkDelete(ids []string) (int, error) {
	want := idSet(ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(s.servers), func(srv models.Server) bool { return want[srv.ID] })
	n := len(s.servers) - len(next)
	if n == 0 {
		return 0, nil
	}
	if err := s.commit(next, s.vcenters); err != nil {
		return 0, err
	}
	return n, nil
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// prepare validates a manually entered server and fills in defaults. The
// disk size is always forced to the fixed value.
func prepare(srv *models.Server) error {
	srv.Name = strings.TrimSpace(srv.Name)
	srv.IPAddress = strings.TrimSpace(srv.IPAddress)
	if srv.Name == "" {
		return invalid("name is required")
	}
	if normalize.IsIPv6Like(srv.IPAddress) || !normalize.IsIPv4(srv.IPAddress) {
		return invalid("ipAddress must be a dotted-quad IPv4 address")
	}
	if !models.ValidOS[srv.OS] {
		return invalid("os must be one of Linux, Windows, Other")
	}
	if srv.InfraType == "" {
		srv.InfraType = models.InfraVirtual
	}
	if !models.ValidInfraTypes[srv.InfraType] {
		return invalid("infraType must be Virtual or Physical")
	}
	for field, v := range map[string]string{
		"installationDate": srv.InstallationDate,
		"lastPatchedDate":  srv.LastPatchedDate,
	} {
		if v != "" && !isISODate(v) {
			return invalid("%s must be YYYY-MM-DD", field)
		}
	}
	if cpu := strings.TrimSpace(srv.CPU); cpu == "" {
		srv.CPU = models.DefaultCPU
	} else if n, ok := normalize.ParseCPU(cpu); ok {
		srv.CPU = n
	} else {
		return invalid("cpu must be a core count between 1 and 256")
	}
	srv.Memory = normalize.OrDefault(srv.Memory, models.DefaultMemory)
	srv.VCenterName = normalize.OrDefault(srv.VCenterName, models.DefaultVCenter)
	srv.Disk = models.FixedDisk
	return nil
}

func isISODate(v string) bool {
	_, err := time.Parse(models.DateLayout, v)
	return err == nil
}
