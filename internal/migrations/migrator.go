package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/jbweber/homelab/shelf/internal/datastore"
)

// Migration is one versioned schema step. Up and Down run inside the migrator's transaction.
type Migration struct {
	Version int64
	Name    string
	Up      func(*sql.Tx) error
	Down    func(*sql.Tx) error
}

// Migrator applies pending migrations in version order.
type Migrator struct {
	db         *sql.DB
	dialect    datastore.Dialect
	migrations []Migration
}

// NewMigrator creates a migrator for db.
func NewMigrator(db *sql.DB, dialect datastore.Dialect) *Migrator {
	return &Migrator{
		db:         db,
		dialect:    dialect,
		migrations: []Migration{},
	}
}

// AddMigration registers a migration, keeping the list sorted by version.
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// RunMigrations applies every migration newer than the recorded version.
func (m *Migrator) RunMigrations() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			if err := m.runMigration(migration); err != nil {
				return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
			}
			log.Info().Int64("version", migration.Version).Str("name", migration.Name).Msg("applied migration")
		}
	}

	return nil
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *Migrator) getCurrentVersion() (int64, error) {
	var version int64
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) runMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error().Err(err).Int64("version", migration.Version).Msg("failed to roll back migration")
		}
	}()

	if err := migration.Up(tx); err != nil {
		return err
	}

	_, err = tx.Exec(m.dialect.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), migration.Version, migration.Name)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetCurrentVersion returns the highest applied migration version, 0 when none.
func (m *Migrator) GetCurrentVersion() (int64, error) {
	return m.getCurrentVersion()
}

// GetMigrations returns the registered migrations in version order.
func (m *Migrator) GetMigrations() []Migration {
	return m.migrations
}

// Run registers the catalog migrations for dialect and applies them.
func Run(db *sql.DB, dialect datastore.Dialect) error {
	migrator := NewMigrator(db, dialect)
	for _, migration := range GetInitialMigrations(dialect) {
		migrator.AddMigration(migration)
	}
	return migrator.RunMigrations()
}
