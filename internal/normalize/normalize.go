// Package normalize maps loosely formatted values pulled out of pasted text
// or spreadsheet cells onto the canonical fields of models.Server.
package normalize

import (
	"regexp"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
)

var (
	windowsKeywords = []string{"windows", "win", "server 20", "2016", "2019", "2022", "ws"}
	linuxKeywords   = []string{"linux", "ubuntu", "centos", "debian", "redhat", "rhel", "suse", "oracle", "unix", "kali", "fedora"}

	backupKeywords     = []string{"yedek", "backup", "evet"}
	physicalKeywords   = []string{"physical", "fiziksel", "baremetal"}
	affirmativeBackup  = map[string]bool{"evet": true, "yes": true, "aktif": true, "true": true}
	ipv4Anywhere       = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	ipv4Exact          = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	windowsServerYear  = regexp.MustCompile(`(2008|2012|2016|2019|2022)`)
	windowsDesktop     = regexp.MustCompile(`(?i)\bwin(?:dows)?\s*(10|11)\b`)
	linuxDistro        = regexp.MustCompile(`(?i)(ubuntu|centos|debian|redhat|rhel|suse)`)
	linuxDistroVersion = regexp.MustCompile(`(22\.04|20\.04|18\.04|7\.\d|8\.\d|9\.\d)`)
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ClassifyOS maps free text onto an OS family. Windows keywords are checked
// before Linux keywords; anything else is Other.
func ClassifyOS(s string) models.OSFamily {
	lower := strings.ToLower(s)
	switch {
	case containsAny(lower, windowsKeywords):
		return models.OSWindows
	case containsAny(lower, linuxKeywords):
		return models.OSLinux
	default:
		return models.OSOther
	}
}

// IsOSKeyword reports whether s contains any Windows or Linux keyword.
func IsOSKeyword(s string) bool {
	lower := strings.ToLower(s)
	return containsAny(lower, windowsKeywords) || containsAny(lower, linuxKeywords)
}

// OSVersion derives a version label for the given family from a line of
// text. The IP address, if any, is removed first so its octets are not
// mistaken for version numbers.
func OSVersion(line string, os models.OSFamily) string {
	line = ipv4Anywhere.ReplaceAllString(line, " ")
	switch os {
	case models.OSWindows:
		if m := windowsServerYear.FindString(line); m != "" {
			return "Server " + m
		}
		if m := windowsDesktop.FindStringSubmatch(line); m != nil {
			return "Windows " + m[1]
		}
	case models.OSLinux:
		distro := linuxDistro.FindString(line)
		version := linuxDistroVersion.FindString(line)
		return strings.TrimSpace(distro + " " + version)
	}
	return ""
}

// HasBackupKeyword reports whether a line mentions a backup.
func HasBackupKeyword(line string) bool {
	return containsAny(strings.ToLower(line), backupKeywords)
}

// IsAffirmative reports whether a spreadsheet backup cell means "yes".
func IsAffirmative(cell string) bool {
	return affirmativeBackup[strings.ToLower(strings.TrimSpace(cell))]
}

// InfraTypeOf returns Physical when the line mentions bare metal.
func InfraTypeOf(line string) models.InfraType {
	if containsAny(strings.ToLower(line), physicalKeywords) {
		return models.InfraPhysical
	}
	return models.InfraVirtual
}

// FindIPv4 returns the first dotted quad in s. Octet ranges are not checked.
func FindIPv4(s string) (string, bool) {
	m := ipv4Anywhere.FindString(s)
	return m, m != ""
}

// IsIPv4 reports whether s is exactly a dotted quad. Octet ranges are not
// checked.
func IsIPv4(s string) bool {
	return ipv4Exact.MatchString(s)
}

// IsIPv6Like reports whether s contains a colon, which is treated as a
// marker for an IPv6 address.
func IsIPv6Like(s string) bool {
	return strings.Contains(s, ":")
}
