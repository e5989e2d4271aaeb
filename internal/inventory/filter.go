package inventory

import (
	"strings"
	"time"

	"github.com/tphummel/server_inventory/internal/models"
)

// PatchWindow is how long a server may go without patching before it is
// reported as needing a patch.
const PatchWindow = 90 * 24 * time.Hour

// Dashboard drill-down flags accepted by Query.Flag.
const (
	FlagUnbacked      = "unbacked"
	FlagEOL           = "eol"
	FlagOrphaned      = "orphaned"
	FlagNeedsPatching = "needsPatching"
	FlagVCenter       = "vCenterName"
	FlagOSVersion     = "osVersion"
	FlagInfraType     = "infraType"
	FlagOS            = "os"
)

// ValidFlags is the set of accepted Query.Flag values.
var ValidFlags = map[string]bool{
	FlagUnbacked:      true,
	FlagEOL:           true,
	FlagOrphaned:      true,
	FlagNeedsPatching: true,
	FlagVCenter:       true,
	FlagOSVersion:     true,
	FlagInfraType:     true,
	FlagOS:            true,
}

// Query selects servers for Filter. Empty fields match everything; OS and
// Backup also accept "All".
type Query struct {
	Search string
	OS     string
	Backup string // "Yes" or "No"
	Flag   string
	Value  string
}

// IsOrphaned reports whether the server has no owner or no department.
func IsOrphaned(s models.Server) bool {
	return strings.TrimSpace(s.Owner) == "" || strings.TrimSpace(s.Department) == ""
}

// IsEOL reports whether the server runs an operating system release that is
// out of vendor support.
func IsEOL(s models.Server) bool {
	os := strings.ToLower(string(s.OS))
	v := strings.ToLower(s.OSVersion)
	if strings.Contains(os, "linux") {
		if strings.Contains(v, "14.04") || strings.Contains(v, "16.04") || strings.Contains(v, "18.04") {
			return true
		}
		return strings.Contains(v, "cent") && (strings.Contains(v, " 6") || strings.Contains(v, " 7"))
	}
	if strings.Contains(os, "win") {
		return strings.Contains(v, "2003") || strings.Contains(v, "2008") || strings.Contains(v, "2012")
	}
	return false
}

// NeedsPatching reports whether the server has never been patched or was
// last patched more than PatchWindow before now.
func NeedsPatching(s models.Server, now time.Time) bool {
	if s.LastPatchedDate == "" {
		return true
	}
	patched, err := time.Parse(models.DateLayout, s.LastPatchedDate)
	if err != nil {
		return true
	}
	return now.Sub(patched) > PatchWindow
}

// Filter returns the servers matching q in insertion order.
func (s *Store) Filter(q Query) []models.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := make(map[string]string, len(s.vcenters))
	for _, vc := range s.vcenters {
		locations[vc.Name] = vc.Location
	}
	now := s.now()
	term := strings.TrimSpace(q.Search)
	lowerTerm := strings.ToLower(term)

	out := []models.Server{}
	for _, srv := range s.servers {
		if term != "" && !matchesSearch(srv, term, lowerTerm) {
			continue
		}
		if q.OS != "" && q.OS != "All" && string(srv.OS) != q.OS {
			continue
		}
		if (q.Backup == "Yes" && !srv.IsBackedUp) || (q.Backup == "No" && srv.IsBackedUp) {
			continue
		}
		if !matchesFlag(srv, q.Flag, q.Value, locations, now) {
			continue
		}
		out = append(out, srv)
	}
	return out
}

func matchesSearch(srv models.Server, term, lowerTerm string) bool {
	for _, field := range []string{srv.Name, srv.Owner, srv.Department, srv.VCenterName} {
		if strings.Contains(strings.ToLower(field), lowerTerm) {
			return true
		}
	}
	return strings.Contains(srv.IPAddress, term)
}

func matchesFlag(srv models.Server, flag, value string, locations map[string]string, now time.Time) bool {
	switch flag {
	case "":
		return true
	case FlagUnbacked:
		return !srv.IsBackedUp
	case FlagEOL:
		return IsEOL(srv)
	case FlagOrphaned:
		return IsOrphaned(srv)
	case FlagNeedsPatching:
		return NeedsPatching(srv, now)
	case FlagVCenter:
		if srv.VCenterName == value {
			return true
		}
		loc, ok := locations[srv.VCenterName]
		return ok && loc == value
	case FlagOSVersion:
		return osLabel(srv) == value
	case FlagInfraType:
		return string(srv.InfraType) == value
	case FlagOS:
		return string(srv.OS) == value
	}
	return true
}

func osLabel(srv models.Server) string {
	label := strings.TrimSpace(string(srv.OS) + " " + srv.OSVersion)
	if label == "" {
		return "Unknown"
	}
	return label
}
