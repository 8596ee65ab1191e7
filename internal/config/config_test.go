package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	require.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	require.Equal(t, 4, cfg.Auth.MinPasswordScore)
	require.Equal(t, 100, cfg.RateLimit.Requests)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	require.Equal(t, 30*24*time.Hour, cfg.Analytics.ActiveWindow)
	require.Equal(t, "admin@centraltradehub.com", cfg.Admin.Email)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
database:
  driver: memory
auth:
  max_login_attempts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TRADEHUB_AUTH_LOCKOUT_DURATION", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	require.Equal(t, 2*time.Minute, cfg.Auth.LockoutDuration)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "memory"},
			Auth: AuthConfig{
				MaxLoginAttempts: 5,
				LockoutDuration:  15 * time.Minute,
				MinPasswordScore: 4,
				SessionTTL:       time.Hour,
				RememberTTL:      24 * time.Hour,
				BcryptCost:       10,
			},
			RateLimit: RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
			Mail:      MailConfig{Provider: "log"},
			Logging:   LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite" }, true},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres"; c.Database.User = "u"; c.Database.Database = "d" }, true},
		{"zero attempts", func(c *Config) { c.Auth.MaxLoginAttempts = 0 }, true},
		{"score above five", func(c *Config) { c.Auth.MinPasswordScore = 6 }, true},
		{"remember shorter than session", func(c *Config) { c.Auth.RememberTTL = time.Minute }, true},
		{"mailgun without key", func(c *Config) { c.Mail.Provider = "mailgun" }, true},
		{"events without url", func(c *Config) { c.Events.Enabled = true }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := &Config{
		Server:   ServerConfig{Port: 0},
		Database: DatabaseConfig{Driver: "sqlite"},
		Mail:     MailConfig{Provider: "smtp"},
		Logging:  LoggingConfig{Level: "info"},
	}
	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "database.path", "auth.max_login_attempts", "mail.provider"} {
		require.Contains(t, err.Error(), want)
	}
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "trade hub", Password: "p@ss/word", Database: "tradehub", SSLMode: "disable"}
	require.Equal(t, "postgres://trade%20hub:p%40ss%2Fword@db:5432/tradehub?sslmode=disable", c.URL())
}
