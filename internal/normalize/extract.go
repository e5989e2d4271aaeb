package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tphummel/server_inventory/internal/models"
)

var (
	ramPattern     = regexp.MustCompile(`(?i)(\d+)\s*(gb|mb|ram|memory)`)
	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	allDigits      = regexp.MustCompile(`^\d+$`)
)

const maxCPU = 256

// ParseCPU reports whether s is a core count: a bare integer in [1,256].
// It returns the count without surrounding space or leading zeros.
func ParseCPU(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !allDigits.MatchString(s) {
		return "", false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxCPU {
		return "", false
	}
	return strconv.Itoa(n), true
}

// Tokenize splits a line on runs of Unicode whitespace, commas and
// semicolons. Non-breaking spaces pasted from web consoles count as
// whitespace.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, isTokenSeparator)
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

// ExtractRAM returns the normalized memory size found in line and the
// numeral it was built from. "ram" and "memory" are read as gigabytes.
// When nothing matches it returns the default size and an empty numeral.
func ExtractRAM(line string) (memory, numeral string) {
	m := ramPattern.FindStringSubmatch(line)
	if m == nil {
		return models.DefaultMemory, ""
	}
	unit := "GB"
	if strings.EqualFold(m[2], "mb") {
		unit = "MB"
	}
	return m[1] + " " + unit, m[1]
}

// ExtractCPU returns the first bare integer token in [1,256] that is not one
// of the IP octets and not the RAM numeral.
func ExtractCPU(tokens []string, ip, ramNumeral string) string {
	octets := strings.Split(ip, ".")
	for _, tok := range tokens {
		if containsString(octets, tok) || (ramNumeral != "" && tok == ramNumeral) {
			continue
		}
		if _, ok := ParseCPU(tok); ok {
			return tok
		}
	}
	return models.DefaultCPU
}

// ExtractPatchDate returns the first YYYY-MM-DD substring of line, or "".
func ExtractPatchDate(line string) string {
	if m := isoDatePattern.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// ExtractName picks the first token that looks like a host name: no IP,
// longer than two characters, not purely numeric, no OS keyword and no
// memory unit.
func ExtractName(tokens []string) string {
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		switch {
		case ipv4Anywhere.MatchString(tok):
		case utf8.RuneCountInString(tok) <= 2:
		case allDigits.MatchString(tok):
		case IsOSKeyword(tok):
		case strings.Contains(lower, "gb"), strings.Contains(lower, "mb"):
		default:
			return tok
		}
	}
	return models.UnknownName
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
