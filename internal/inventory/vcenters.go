package inventory

import (
	"slices"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
)

// VCenters returns every vCenter in insertion order.
func (s *Store) VCenters() []models.VCenter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.vcenters)
}

// AddVCenter registers a new vCenter. Names must be unique.
func (s *Store) AddVCenter(vc models.VCenter) (models.VCenter, error) {
	vc.Name = strings.TrimSpace(vc.Name)
	if vc.Name == "" {
		return models.VCenter{}, invalid("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vcenterNamed(vc.Name, "") {
		return models.VCenter{}, invalid("vCenter %q already exists", vc.Name)
	}
	vc.ID = s.newID()
	if err := s.commit(s.servers, append(slices.Clone(s.vcenters), vc)); err != nil {
		return models.VCenter{}, err
	}
	return vc, nil
}

// UpdateVCenter replaces the vCenter's fields. A rename is carried over to
// every server assigned to the old name.
func (s *Store) UpdateVCenter(id string, vc models.VCenter) (models.VCenter, error) {
	vc.Name = strings.TrimSpace(vc.Name)
	if vc.Name == "" {
		return models.VCenter{}, invalid("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.vcenters, func(v models.VCenter) bool { return v.ID == id })
	if i < 0 {
		return models.VCenter{}, ErrNotFound
	}
	if s.vcenterNamed(vc.Name, id) {
		return models.VCenter{}, invalid("vCenter %q already exists", vc.Name)
	}
	vc.ID = id
	oldName := s.vcenters[i].Name

	vcenters := slices.Clone(s.vcenters)
	vcenters[i] = vc
	servers := s.servers
	if oldName != vc.Name {
		servers = slices.Clone(s.servers)
		at := s.now()
		for j := range servers {
			if servers[j].VCenterName == oldName {
				servers[j].VCenterName = vc.Name
				servers[j].UpdatedAt = at
			}
		}
	}
	if err := s.commit(servers, vcenters); err != nil {
		return models.VCenter{}, err
	}
	return vc, nil
}

// DeleteVCenter removes the vCenter. Servers keep their vCenterName.
func (s *Store) DeleteVCenter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.vcenters, func(v models.VCenter) bool { return v.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	return s.commit(s.servers, slices.Delete(slices.Clone(s.vcenters), i, i+1))
}

func (s *Store) vcenterNamed(name, exceptID string) bool {
	return slices.ContainsFunc(s.vcenters, func(v models.VCenter) bool {
		return v.ID != exceptID && strings.EqualFold(v.Name, name)
	})
}
