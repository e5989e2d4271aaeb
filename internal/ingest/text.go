// Package ingest turns pasted free text and spreadsheets into normalized
// server records. Lines or rows that do not carry a usable IPv4 address are
// skipped rather than reported.
package ingest

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/server_inventory/internal/models"
	"github.com/tphummel/server_inventory/internal/normalize"
)

// ErrNoValidRecords is returned when free text yields no admissible record.
var ErrNoValidRecords = errors.New("no valid IPv4 server data found")

// now and newID are swapped out in tests.
var (
	now   = time.Now
	newID = uuid.NewString
)

// TextResult counts what happened to the non-blank lines of a text import.
type TextResult struct {
	Lines    int `json:"lines"`
	Admitted int `json:"admitted"`
	Rejected int `json:"rejected"`
}

// ParseText parses multi-line free text, one candidate server per line.
// Input order is preserved. It returns ErrNoValidRecords, along with the
// counts, when no line is admitted.
func ParseText(text string) ([]models.Server, TextResult, error) {
	var (
		res     TextResult
		servers []models.Server
	)
	at := now().UTC()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Lines++
		s, ok := ParseLine(line, at)
		if !ok {
			res.Rejected++
			continue
		}
		res.Admitted++
		servers = append(servers, s)
	}
	if len(servers) == 0 {
		return nil, res, ErrNoValidRecords
	}
	return servers, res, nil
}

// ParseLine extracts a server from one line of text. It reports false when
// the line contains a colon (treated as an IPv6 address) or has no dotted
// quad.
func ParseLine(line string, at time.Time) (models.Server, bool) {
	if normalize.IsIPv6Like(line) {
		return models.Server{}, false
	}
	tokens := normalize.Tokenize(line)
	if len(tokens) == 0 {
		return models.Server{}, false
	}
	ip, ok := normalize.FindIPv4(line)
	if !ok {
		return models.Server{}, false
	}

	memory, ramNumeral := normalize.ExtractRAM(line)
	os := normalize.ClassifyOS(line)

	return models.Server{
		ID:               newID(),
		Name:             normalize.ExtractName(tokens),
		IPAddress:        ip,
		OS:               os,
		OSVersion:        normalize.OSVersion(line, os),
		CPU:              normalize.ExtractCPU(tokens, ip, ramNumeral),
		Memory:           memory,
		Disk:             models.FixedDisk,
		InfraType:        normalize.InfraTypeOf(line),
		VCenterName:      models.DefaultVCenter,
		InstallationDate: at.Format(models.DateLayout),
		LastPatchedDate:  normalize.ExtractPatchDate(line),
		IsBackedUp:       normalize.HasBackupKeyword(line),
		UpdatedAt:        at,
	}, true
}
