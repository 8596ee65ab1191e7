// Package main is the entry point for the TradeHub API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/prn-tf/tradehub/internal/app"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/logging"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closer := logging.New(cfg.Logging, "tradehub-server")
	defer closer.Close()

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting TradeHub server")

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == "" {
		secret, err := crypto.GenerateToken(32)
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		logger.Warn().Msg("auth.jwt_secret is not set; tokens will not survive a restart")
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Runner().Run(ctx)
	if err != nil {
		return fmt.Errorf("document migration failed: %w", err)
	}
	logger.Info().
		Str("from", report.FromVersion).
		Str("to", report.ToVersion).
		Bool("up_to_date", report.UpToDate).
		Int("migrated", report.Migrated).
		Msg("document schema ready")

	if cfg.Admin.Bootstrap {
		created, generated, err := a.Admin.EnsureDefaultAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		if created && generated != "" {
			logger.Warn().
				Str("email", cfg.Admin.Email).
				Str("password", generated).
				Msg("default admin created with a generated password; change it now")
		}
	}

	if err := a.StartEvents(); err != nil {
		return fmt.Errorf("failed to start event publishing: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.Router().Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{srv}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, a.MetricsHandler())
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			logger.Info().Str("addr", s.Addr).Msg("listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(s)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", s.Addr).Msg("graceful shutdown failed")
		}
	}
	return nil
}
