package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// Migrator applies the SQL files under a migrations source to a database.
type Migrator struct {
	sourceURL   string
	databaseURL string
	log         zerolog.Logger
}

// NewMigrator creates a migrator. sourceURL is usually "file://migrations".
func NewMigrator(sourceURL, databaseURL string, log zerolog.Logger) *Migrator {
	return &Migrator{sourceURL: sourceURL, databaseURL: databaseURL, log: log}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	mg, err := migrate.New(m.sourceURL, m.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return mg, nil
}

// Up applies all pending migrations. A database left dirty by a failed run is
// forced back to its recorded version first.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.log.Warn().Err(err).Msg("Could not get migration version")
	}

	if dirty {
		m.log.Warn().Uint("version", version).Msg("Database in dirty state, forcing clean")
		if err := mg.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info().Uint("version", version).Msg("Database is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ = mg.Version()
	m.log.Info().Uint("version", version).Msg("Migrations complete")
	return nil
}

// Down rolls back the last applied migration.
func (m *Migrator) Down() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	version, _, _ := mg.Version()
	m.log.Info().Uint("version", version).Msg("Rolled back migration")
	return nil
}

// Version returns the current migration version and whether it is dirty.
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	return mg.Version()
}
