package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/repository"
	memstore "github.com/prn-tf/tradehub/internal/repository/memory"
	"github.com/prn-tf/tradehub/internal/repository/postgres"
	"github.com/prn-tf/tradehub/internal/repository/sqlite"
)

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Openers returns the document store backends linked into the binaries.
func Openers() map[string]repository.Opener {
	return map[string]repository.Opener{
		DriverMemory:   openMemory,
		DriverPostgres: postgres.Open,
		DriverSQLite:   sqlite.Open,
	}
}

func openMemory(_ context.Context, _ config.DatabaseConfig, logger zerolog.Logger) (repository.DocumentStore, repository.DatabaseHealth, error) {
	store := memstore.NewStore(logger)
	return store, store, nil
}
