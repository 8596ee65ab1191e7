package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(cfg config.DatabaseConfig, logger zerolog.Logger) error {
	m, closeFn, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info().Msg("running schema migrations")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Msg("no schema migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply schema migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema migrations applied")
	}
	return nil
}

// Rollback reverts every schema migration.
func Rollback(cfg config.DatabaseConfig, logger zerolog.Logger) error {
	m, closeFn, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back schema migrations: %w", err)
	}
	logger.Warn().Msg("schema migrations rolled back")
	return nil
}

// Version returns the applied schema version. ok is false before the first
// migration.
func Version(cfg config.DatabaseConfig) (version uint, dirty bool, ok bool, err error) {
	m, closeFn, err := newMigrator(cfg)
	if err != nil {
		return 0, false, false, err
	}
	defer closeFn()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, true, nil
}

// Force sets the schema version without running migrations and clears the
// dirty flag. It is used to recover from a failed migration.
func Force(cfg config.DatabaseConfig, version int, logger zerolog.Logger) error {
	m, closeFn, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force schema version %d: %w", version, err)
	}
	logger.Warn().Int("version", version).Msg("schema version forced")
	return nil
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, func() { _, _ = m.Close() }, nil
}
