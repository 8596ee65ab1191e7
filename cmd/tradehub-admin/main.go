// Package main is the entry point for the TradeHub admin CLI.
// It provides back-office commands that run directly against the store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"github.com/prn-tf/tradehub/internal/app"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/logging"
	"github.com/prn-tf/tradehub/internal/migration"
	"github.com/prn-tf/tradehub/internal/service"
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
	limit := fs.Int("limit", 50, "page size (users)")
	offset := fs.Int("offset", 0, "page offset (users)")
	email := fs.String("email", "", "admin email (create-admin)")
	password := fs.String("password", "", "admin password (create-admin)")
	firstName := fs.String("first-name", "", "admin first name (create-admin)")
	lastName := fs.String("last-name", "", "admin last name (create-admin)")
	role := fs.String("role", domain.RoleAdmin, "admin role (create-admin)")
	permissions := fs.String("permissions", "", "comma separated permissions (create-admin)")
	yes := fs.Bool("yes", false, "confirm a destructive command")
	_ = fs.Parse(os.Args[2:])

	switch command {
	case "version":
		fmt.Printf("TradeHub Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
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
	logger, closer := logging.New(cfg.Logging, "tradehub-admin")
	defer closer.Close()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open store")
		closer.Close()
		os.Exit(1)
	}
	defer a.Close()

	switch command {
	case "users":
		err = listUsers(ctx, a, *limit, *offset)
	case "stats":
		err = printResult(a.Admin.Stats(ctx))
	case "analytics":
		err = printResult(a.Admin.Analytics(ctx))
	case "delete-user":
		if fs.NArg() != 1 {
			err = errors.New("usage: tradehub-admin delete-user <id>")
			break
		}
		err = a.Admin.DeleteUser(ctx, fs.Arg(0))
		if err == nil {
			fmt.Printf("deleted user %s\n", fs.Arg(0))
		}
	case "create-admin":
		var perms []string
		for _, p := range strings.Split(*permissions, ",") {
			if p = strings.TrimSpace(p); p != "" {
				perms = append(perms, p)
			}
		}
		err = printResult(a.Admin.CreateAdmin(ctx, service.CreateAdminInput{
			Email:       *email,
			Password:    *password,
			FirstName:   *firstName,
			LastName:    *lastName,
			Role:        *role,
			Permissions: perms,
			CreatedBy:   "cli",
		}))
	case "backup":
		exporter, xerr := a.Exporter(ctx)
		if xerr != nil {
			err = xerr
			break
		}
		err = printResult(exporter.Export(ctx))
	case "reset":
		if !*yes {
			err = errors.New("reset deletes every document; rerun with -yes to confirm")
			break
		}
		var n int
		n, err = migration.Reset(ctx, a.Repos.Store, logger)
		if err == nil {
			fmt.Printf("deleted %d documents\n", n)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		a.Close()
		closer.Close()
		os.Exit(1)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("admin command failed")
		a.Close()
		closer.Close()
		os.Exit(1)
	}
}

func listUsers(ctx context.Context, a *app.App, limit, offset int) error {
	res, err := a.Admin.ListUsers(ctx, limit, offset)
	if err != nil {
		return err
	}
	fmt.Printf("%-36s  %-32s  %-10s  %s\n", "ID", "EMAIL", "STATUS", "CREATED")
	for _, u := range res.Items {
		fmt.Printf("%-36s  %-32s  %-10s  %s\n",
			u.ID, u.Email, u.Account.Status, u.Metadata.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d of %d users\n", len(res.Items), res.Total)
	return nil
}

func printResult[T any](v T, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Println(`TradeHub Admin CLI

Usage:
  tradehub-admin <command> [flags] [arguments]

Commands:
  users         List users (-limit, -offset)
  stats         Print system counts
  analytics     Print user analytics
  delete-user   Delete a user by id
  create-admin  Create an admin (-email, -password, -role, -permissions)
  backup        Export every collection to the configured S3 bucket
  reset         Delete every document (-yes required)
  version       Print version information
  help          Show this help message

Examples:
  tradehub-admin users -limit 20
  tradehub-admin delete-user 7f9c...
  tradehub-admin create-admin -email ops@example.com -password 'S3cure!pw' -role support -permissions support,analytics
  tradehub-admin backup
  tradehub-admin reset -yes`)
}
