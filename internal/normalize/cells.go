package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/tphummel/server_inventory/internal/models"
)

var memoryCell = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(gb|mb)?$`)

// Spreadsheet date layouts, tried in order. Day-first layouts come before
// month-first ones because the spreadsheets are filled in a day-first locale.
var dateLayouts = []string{
	models.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
}

// NormalizeDate converts a spreadsheet date cell to YYYY-MM-DD. It reports
// false for empty or unrecognised values.
func NormalizeDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format(models.DateLayout), true
		}
	}
	return "", false
}

// NormalizeMemory canonicalises a RAM cell such as "16GB" or "512 mb".
// A bare number is read as gigabytes, unrecognised text is kept as typed.
func NormalizeMemory(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return models.DefaultMemory
	}
	m := memoryCell.FindStringSubmatch(cell)
	if m == nil {
		return cell
	}
	unit := "GB"
	if strings.EqualFold(m[2], "mb") {
		unit = "MB"
	}
	return strings.Replace(m[1], ",", ".", 1) + " " + unit
}

// NormalizeCPU reads a CPU cell as a core count. Empty cells and values
// outside [1,256] fall back to the default core count.
func NormalizeCPU(cell string) string {
	if n, ok := ParseCPU(cell); ok {
		return n
	}
	return models.DefaultCPU
}

// OrDefault returns the trimmed value, or def when it is empty.
func OrDefault(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}
