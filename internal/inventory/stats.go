package inventory

import (
	"math"
	"strconv"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
)

// Unassigned is the location bucket for servers whose vCenter has no
// location on record.
const Unassigned = "Unassigned"

// Stats aggregates the whole inventory for the dashboard.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := make(map[string]string, len(s.vcenters))
	for _, vc := range s.vcenters {
		locations[vc.Name] = vc.Location
	}

	st := models.Stats{
		TotalServers:          len(s.servers),
		VCenterDistribution:   map[string]int{},
		LocationDistribution:  map[string]int{},
		InfraDistribution:     map[string]int{string(models.InfraVirtual): 0, string(models.InfraPhysical): 0},
		OSVersionDistribution: map[string]int{},
	}
	backedUp := 0
	var ramGB float64
	for _, srv := range s.servers {
		switch srv.OS {
		case models.OSLinux:
			st.LinuxCount++
		case models.OSWindows:
			st.WindowsCount++
		}
		if srv.IsBackedUp {
			backedUp++
		}
		st.TotalCPU += leadingInt(srv.CPU)
		ramGB += memoryGB(srv.Memory)

		st.VCenterDistribution[srv.VCenterName]++
		loc := locations[srv.VCenterName]
		if loc == "" {
			loc = Unassigned
		}
		st.LocationDistribution[loc]++
		infra := srv.InfraType
		if infra == "" {
			infra = models.InfraVirtual
		}
		st.InfraDistribution[string(infra)]++
		st.OSVersionDistribution[osLabel(srv)]++
	}
	if st.TotalServers > 0 {
		st.BackupRate = math.Round(float64(backedUp)/float64(st.TotalServers)*1000) / 10
	}
	st.TotalRAMGB = math.Round(ramGB*100) / 100
	return st
}

// CountByOS returns the number of servers per os family and the number of
// backed up servers.
func (s *Store) CountByOS() (map[models.OSFamily]int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[models.OSFamily]int{
		models.OSLinux:   0,
		models.OSWindows: 0,
		models.OSOther:   0,
	}
	backedUp := 0
	for _, srv := range s.servers {
		counts[srv.OS]++
		if srv.IsBackedUp {
			backedUp++
		}
	}
	return counts, backedUp
}

// leadingInt parses the leading decimal digits of v, ignoring whatever
// follows ("8 cores" is 8). Zero when there are none.
func leadingInt(v string) int {
	v = strings.TrimSpace(v)
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0
	}
	return n
}

// memoryGB converts a memory value such as "16 GB" or "512 MB" to
// gigabytes. Only the first space separated field is read as the amount.
func memoryGB(v string) float64 {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0
	}
	amount := fields[0]
	end := 0
	for end < len(amount) && (amount[end] >= '0' && amount[end] <= '9' || amount[end] == '.') {
		end++
	}
	n, err := strconv.ParseFloat(amount[:end], 64)
	if err != nil {
		return 0
	}
	if strings.Contains(strings.ToLower(v), "mb") {
		return n / 1024
	}
	return n
}
