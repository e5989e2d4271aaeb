package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
	"github.com/tphummel/server_inventory/internal/normalize"
)

// Spreadsheet column headers.
const (
	HeaderName             = "Sunucu Adı"
	HeaderIPAddress        = "IP Adresi"
	HeaderOS               = "OS"
	HeaderOSVersion        = "OS Versiyonu"
	HeaderVCenter          = "vCenter İsmi"
	HeaderCPU              = "CPU"
	HeaderRAM              = "RAM"
	HeaderInstallationDate = "Kurulum Tarihi"
	HeaderPatchDate        = "Yama Tarihi"
	HeaderDepartment       = "Birim"
	HeaderOwner            = "Sahibi"
	HeaderTechTeam         = "Teknik Ekip"
	HeaderBackup           = "Yedek Durumu"
)

// Headers lists every spreadsheet column in template order.
var Headers = []string{
	HeaderName, HeaderIPAddress, HeaderOS, HeaderOSVersion, HeaderVCenter,
	HeaderCPU, HeaderRAM, HeaderInstallationDate, HeaderPatchDate,
	HeaderDepartment, HeaderOwner, HeaderTechTeam, HeaderBackup,
}

// RequiredHeaders must all be present for a spreadsheet to be ingested.
var RequiredHeaders = []string{HeaderName, HeaderIPAddress}

// ErrEmptySpreadsheet is returned when a spreadsheet has no data rows.
var ErrEmptySpreadsheet = errors.New("spreadsheet has no data rows")

// MissingHeadersError is returned when required columns are absent. No rows
// are ingested in that case.
type MissingHeadersError struct {
	Headers []string
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("spreadsheet is missing required columns: %s", strings.Join(e.Headers, ", "))
}

// SheetResult counts what happened to the data rows of a spreadsheet.
type SheetResult struct {
	Rows     int `json:"rows"`
	Admitted int `json:"admitted"`
	Skipped  int `json:"skipped"`
}

// headerIndex maps a trimmed header cell to its column. The first occurrence
// of a duplicated header wins.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func (idx headerIndex) cell(row []string, header string) string {
	pos, ok := idx[header]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// ParseSheet converts tabular rows, the first non-blank one being the header
// row, into servers. Rows whose IP cell is empty, contains a colon or is not
// a dotted quad are skipped. Output order matches row order and duplicates
// are kept.
func ParseSheet(rows [][]string) ([]models.Server, SheetResult, error) {
	var res SheetResult

	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	data := make([][]string, 0, len(rows))
	if len(rows) > 1 {
		for _, row := range rows[1:] {
			if !isBlankRow(row) {
				data = append(data, row)
			}
		}
	}
	if len(data) == 0 {
		return nil, res, ErrEmptySpreadsheet
	}

	idx := makeHeaderIndex(rows[0])
	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, res, &MissingHeadersError{Headers: missing}
	}

	at := now().UTC()
	today := at.Format(models.DateLayout)
	servers := make([]models.Server, 0, len(data))
	for _, row := range data {
		res.Rows++
		ip := idx.cell(row, HeaderIPAddress)
		if normalize.IsIPv6Like(ip) || !normalize.IsIPv4(ip) {
			res.Skipped++
			continue
		}

		installed := idx.cell(row, HeaderInstallationDate)
		if installed == "" {
			installed = today
		} else {
			installed, _ = normalize.NormalizeDate(installed)
		}
		patched, _ := normalize.NormalizeDate(idx.cell(row, HeaderPatchDate))

		servers = append(servers, models.Server{
			ID:               newID(),
			Name:             normalize.OrDefault(idx.cell(row, HeaderName), models.UnknownName),
			IPAddress:        ip,
			OS:               normalize.ClassifyOS(idx.cell(row, HeaderOS)),
			OSVersion:        idx.cell(row, HeaderOSVersion),
			CPU:              normalize.NormalizeCPU(idx.cell(row, HeaderCPU)),
			Memory:           normalize.NormalizeMemory(idx.cell(row, HeaderRAM)),
			Disk:             models.FixedDisk,
			InfraType:        models.InfraVirtual,
			VCenterName:      normalize.OrDefault(idx.cell(row, HeaderVCenter), models.DefaultVCenter),
			InstallationDate: installed,
			LastPatchedDate:  patched,
			Department:       idx.cell(row, HeaderDepartment),
			Owner:            idx.cell(row, HeaderOwner),
			TechTeam:         idx.cell(row, HeaderTechTeam),
			IsBackedUp:       normalize.IsAffirmative(idx.cell(row, HeaderBackup)),
			UpdatedAt:        at,
		})
		res.Admitted++
	}
	return servers, res, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
