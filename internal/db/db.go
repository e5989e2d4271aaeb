package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection. It implements inventory.Persister.
type DB struct {
	conn *sql.DB
}

var _ inventory.Persister = (*DB)(nil)

// New opens the SQLite database at path, enables WAL mode, and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS servers (
			id                TEXT PRIMARY KEY,
			position          INTEGER NOT NULL,
			name              TEXT NOT NULL,
			ip_address        TEXT NOT NULL,
			os                TEXT NOT NULL,
			os_version        TEXT NOT NULL DEFAULT '',
			cpu               TEXT NOT NULL DEFAULT '',
			memory            TEXT NOT NULL DEFAULT '',
			disk              TEXT NOT NULL DEFAULT '',
			infra_type        TEXT NOT NULL DEFAULT 'Virtual',
			vcenter_name      TEXT NOT NULL DEFAULT '',
			installation_date TEXT NOT NULL DEFAULT '',
			last_patched_date TEXT NOT NULL DEFAULT '',
			department        TEXT NOT NULL DEFAULT '',
			owner             TEXT NOT NULL DEFAULT '',
			tech_team         TEXT NOT NULL DEFAULT '',
			is_backed_up      INTEGER NOT NULL DEFAULT 0,
			notes             TEXT NOT NULL DEFAULT '',
			updated_at        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_servers_position ON servers(position);
		CREATE INDEX IF NOT EXISTS idx_servers_ip ON servers(ip_address);

		CREATE TABLE IF NOT EXISTS vcenters (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			location    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

// Load reads the whole inventory.
func (d *DB) Load() (inventory.Snapshot, error) {
	servers, err := d.LoadServers()
	if err != nil {
		return inventory.Snapshot{}, err
	}
	vcenters, err := d.LoadVCenters()
	if err != nil {
		return inventory.Snapshot{}, err
	}
	return inventory.Snapshot{Servers: servers, VCenters: vcenters}, nil
}

// Save replaces the stored inventory with snap in a single transaction.
func (d *DB) Save(snap inventory.Snapshot) error {
	return d.inTx(func(tx *sql.Tx) error {
		if err := replaceServers(tx, snap.Servers); err != nil {
			return err
		}
		return replaceVCenters(tx, snap.VCenters)
	})
}

// LoadServers returns every stored server in insertion order.
func (d *DB) LoadServers() ([]models.Server, error) {
	rows, err := d.conn.Query(`
		SELECT id, name, ip_address, os, os_version, cpu, memory, disk, infra_type, vcenter_name,
		       installation_date, last_patched_date, department, owner, tech_team, is_backed_up, notes, updated_at
		FROM servers ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

// LoadVCenters returns every stored vCenter in insertion order.
func (d *DB) LoadVCenters() ([]models.VCenter, error) {
	rows, err := d.conn.Query(`SELECT id, name, location, description FROM vcenters ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vcenters []models.VCenter
	for rows.Next() {
		var v models.VCenter
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.Description); err != nil {
			return nil, err
		}
		vcenters = append(vcenters, v)
	}
	return vcenters, rows.Err()
}

func (d *DB) inTx(fn func(*sql.Tx) error) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func replaceServers(tx *sql.Tx, servers []models.Server) error {
	if _, err := tx.Exec(`DELETE FROM servers`); err != nil {
		return fmt.Errorf("clear servers: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO servers (id, position, name, ip_address, os, os_version, cpu, memory, disk, infra_type, vcenter_name,
		                     installation_date, last_patched_date, department, owner, tech_team, is_backed_up, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range servers {
		if _, err := stmt.Exec(
			s.ID, i, s.Name, s.IPAddress, s.OS, s.OSVersion, s.CPU, s.Memory, s.Disk, s.InfraType, s.VCenterName,
			s.InstallationDate, s.LastPatchedDate, s.Department, s.Owner, s.TechTeam, s.IsBackedUp, s.Notes,
			s.UpdatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert server %s: %w", s.ID, err)
		}
	}
	return nil
}

func replaceVCenters(tx *sql.Tx, vcenters []models.VCenter) error {
	if _, err := tx.Exec(`DELETE FROM vcenters`); err != nil {
		return fmt.Errorf("clear vcenters: %w", err)
	}
	for i, v := range vcenters {
		if _, err := tx.Exec(`INSERT INTO vcenters (id, position, name, location, description) VALUES (?, ?, ?, ?, ?)`,
			v.ID, i, v.Name, v.Location, v.Description,
		); err != nil {
			return fmt.Errorf("insert vcenter %s: %w", v.ID, err)
		}
	}
	return nil
}

func scanServer(rows *sql.Rows) (models.Server, error) {
	var s models.Server
	var updatedAt string
	if err := rows.Scan(
		&s.ID, &s.Name, &s.IPAddress, &s.OS, &s.OSVersion,
		&s.CPU, &s.Memory, &s.Disk, &s.InfraType, &s.VCenterName,
		&s.InstallationDate, &s.LastPatchedDate,
		&s.Department, &s.Owner, &s.TechTeam, &s.IsBackedUp, &s.Notes,
		&updatedAt,
	); err != nil {
		return models.Server{}, err
	}
	var err error
	s.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return models.Server{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return s, nil
}
