// Package main is the entry point for the TradeHub migration tool.
// It manages the SQL schema of the postgres backend and the document
// layout of every backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/prn-tf/tradehub/internal/app"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/logging"
	"github.com/prn-tf/tradehub/internal/migration"
	"github.com/prn-tf/tradehub/internal/repository/postgres"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	noSeed := fs.Bool("no-seed", false, "do not seed an empty store")
	_ = fs.Parse(os.Args[2:])

	switch command {
	case "version":
		fmt.Printf("TradeHub Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Printf("Data Version: %s\n", migration.TargetVersion)
		return

	case "compare":
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: tradehub-migrate compare <a> <b>")
			os.Exit(1)
		}
		fmt.Println(migration.CompareVersions(fs.Arg(0), fs.Arg(1)))
		return

	case "help", "-h", "--help":
		printUsage()
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *noSeed {
		cfg.Seed.Enabled = false
	}
	logger, closer := logging.New(cfg.Logging, "tradehub-migrate")
	defer closer.Close()

	ctx := context.Background()

	switch command {
	case "up":
		err = up(ctx, cfg, logger)
	case "status":
		err = status(ctx, cfg, logger)
	case "down":
		err = requirePostgres(cfg, func() error { return postgres.Rollback(cfg.Database, logger) })
	case "force":
		if fs.NArg() != 1 {
			err = fmt.Errorf("usage: tradehub-migrate force <version>")
			break
		}
		var version int
		version, err = strconv.Atoi(fs.Arg(0))
		if err != nil {
			err = fmt.Errorf("invalid version %q", fs.Arg(0))
			break
		}
		err = requirePostgres(cfg, func() error { return postgres.Force(cfg.Database, version, logger) })
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("migration command failed")
		closer.Close()
		os.Exit(1)
	}
}

// up opens the store, which applies pending SQL schema migrations, and then
// brings the documents to the current layout.
func up(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Runner().Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func status(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	out := map[string]any{
		"driver":       cfg.Database.Driver,
		"buildVersion": migration.TargetVersion,
	}

	if cfg.Database.Driver == app.DriverPostgres {
		version, dirty, ok, err := postgres.Version(cfg.Database)
		if err != nil {
			return err
		}
		if ok {
			out["schemaVersion"] = version
			out["schemaDirty"] = dirty
		}
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.Runner().CurrentVersion(ctx)
	if err != nil {
		return err
	}
	out["dataVersion"] = current
	out["upToDate"] = migration.CompareVersions(current, migration.TargetVersion) >= 0
	return printJSON(out)
}

func requirePostgres(cfg *config.Config, fn func() error) error {
	if cfg.Database.Driver != app.DriverPostgres {
		return fmt.Errorf("command requires the postgres driver, configured driver is %q", cfg.Database.Driver)
	}
	return fn()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Println(`TradeHub Migration Tool

Usage:
  tradehub-migrate <command> [flags] [arguments]

Commands:
  up          Apply schema migrations, upgrade documents and seed an empty store
  status      Show the schema and data versions
  down        Roll back every SQL schema migration (postgres only)
  force       Force set the SQL schema version (postgres only, use with caution)
  compare     Compare two data versions, printing -1, 0 or 1
  version     Print version information
  help        Show this help message

Flags:
  -config     Path to config file
  -no-seed    Do not seed an empty store (up)

Environment Variables:
  TRADEHUB_DATABASE_DRIVER    memory, sqlite or postgres
  TRADEHUB_DATABASE_PATH      SQLite database file

Examples:
  tradehub-migrate up
  tradehub-migrate status -config configs/config.yaml
  tradehub-migrate force 1
  tradehub-migrate compare 1.0 1.0.1`)
}
