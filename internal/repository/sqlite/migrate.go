package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

type schemaStep struct {
	version int
	file    string
}

// Migrate applies each embedded migrations/NNNNNN_name.up.sql newer than the
// version recorded in schema_migrations. Each step runs in its own
// transaction together with its version row.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	steps, err := pendingSteps(current)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		db.logger.Debug().Int("version", current).Msg("schema up to date")
		return nil
	}

	for _, step := range steps {
		body, err := migrationsFS.ReadFile(step.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", step.file, err)
		}
		err = db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, step.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply schema version %d: %w", step.version, err)
		}
		db.logger.Info().Int("version", step.version).Str("file", path.Base(step.file)).Msg("schema migration applied")
	}
	return nil
}

func pendingSteps(after int) ([]schemaStep, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}

	var steps []schemaStep
	for _, f := range files {
		v, err := migrationVersion(f)
		if err != nil {
			return nil, err
		}
		if v > after {
			steps = append(steps, schemaStep{version: v, file: f})
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

// migrationVersion parses the numeric prefix of NNNNNN_name.up.sql.
func migrationVersion(file string) (int, error) {
	prefix, _, ok := strings.Cut(path.Base(file), "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", file)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %s: %w", file, err)
	}
	return v, nil
}
