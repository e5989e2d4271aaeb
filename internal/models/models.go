package models

import "time"

// OSFamily is the coarse operating system classification of a server.
type OSFamily string

const (
	OSLinux   OSFamily = "Linux"
	OSWindows OSFamily = "Windows"
	OSOther   OSFamily = "Other"
)

// InfraType says whether a server is a virtual machine or bare metal.
type InfraType string

const (
	InfraVirtual  InfraType = "Virtual"
	InfraPhysical InfraType = "Physical"
)

// Defaults applied to ingested records.
const (
	FixedDisk      = "50 GB"
	DefaultCPU     = "1"
	DefaultMemory  = "4 GB"
	DefaultVCenter = "Default-vCenter"
	UnknownName    = "Bilinmiyor"

	// DateLayout is the layout of installation and patch dates.
	DateLayout = "2006-01-02"
)

// Server is a single virtual or physical machine in the inventory.
type Server struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	IPAddress        string    `json:"ipAddress"`
	OS               OSFamily  `json:"os"`
	OSVersion        string    `json:"osVersion"`
	CPU              string    `json:"cpu"`
	Memory           string    `json:"memory"`
	Disk             string    `json:"disk"`
	InfraType        InfraType `json:"infraType"`
	VCenterName      string    `json:"vCenterName"`
	InstallationDate string    `json:"installationDate"`
	LastPatchedDate  string    `json:"lastPatchedDate"`
	Department       string    `json:"department"`
	Owner            string    `json:"owner"`
	TechTeam         string    `json:"techTeam"`
	IsBackedUp       bool      `json:"isBackedUp"`
	Notes            string    `json:"notes,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// VCenter is a virtualization manager servers can be assigned to.
type VCenter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// Stats is the aggregated view of the inventory shown on the dashboard.
type Stats struct {
	TotalServers          int            `json:"totalServers"`
	LinuxCount            int            `json:"linuxCount"`
	WindowsCount          int            `json:"windowsCount"`
	BackupRate            float64        `json:"backupRate"`
	TotalCPU              int            `json:"totalCpu"`
	TotalRAMGB            float64        `json:"totalRamGb"`
	VCenterDistribution   map[string]int `json:"vCenterDistribution"`
	LocationDistribution  map[string]int `json:"locationDistribution"`
	InfraDistribution     map[string]int `json:"infraDistribution"`
	OSVersionDistribution map[string]int `json:"osVersionDistribution"`
}

// ValidOS is the set of allowed os values.
var ValidOS = map[OSFamily]bool{
	OSLinux:   true,
	OSWindows: true,
	OSOther:   true,
}

// ValidInfraTypes is the set of allowed infraType values.
var ValidInfraTypes = map[InfraType]bool{
	InfraVirtual:  true,
	InfraPhysical: true,
}
