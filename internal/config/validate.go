package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	drivers       = []string{"memory", "postgres", "sqlite"}
	mailProviders = []string{"log", "mailgun"}
	logLevels     = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
)

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port %d out of range", c.Server.Port)

	db := c.Database
	check(slices.Contains(drivers, db.Driver), "database.driver %q is not one of %s", db.Driver, strings.Join(drivers, ", "))
	switch db.Driver {
	case "postgres":
		check(db.Host != "", "database.host is required for postgres")
		check(db.User != "", "database.user is required for postgres")
		check(db.Database != "", "database.database is required for postgres")
	case "sqlite":
		check(db.Path != "", "database.path is required for sqlite")
	}

	a := c.Auth
	check(a.MaxLoginAttempts >= 1, "auth.max_login_attempts must be at least 1")
	check(a.LockoutDuration > 0, "auth.lockout_duration must be positive")
	check(a.MinPasswordScore >= 1 && a.MinPasswordScore <= 5, "auth.min_password_score must be within 1..5")
	check(a.SessionTTL > 0, "auth.session_ttl must be positive")
	check(a.RememberTTL >= a.SessionTTL, "auth.remember_ttl must not be shorter than auth.session_ttl")
	check(a.BcryptCost >= 4 && a.BcryptCost <= 31, "auth.bcrypt_cost must be within 4..31")

	if c.RateLimit.Enabled {
		check(c.RateLimit.Requests > 0 && c.RateLimit.Window > 0, "rate_limit.requests and rate_limit.window must be positive")
	}
	if c.Events.Enabled {
		check(c.Events.URL != "", "events.url is required when events are enabled")
	}

	check(slices.Contains(mailProviders, c.Mail.Provider), "mail.provider %q is not one of %s", c.Mail.Provider, strings.Join(mailProviders, ", "))
	if c.Mail.Provider == "mailgun" {
		check(c.Mail.Domain != "" && c.Mail.APIKey != "", "mail.domain and mail.api_key are required for mailgun")
	}

	check(slices.Contains(logLevels, strings.ToLower(c.Logging.Level)), "logging.level %q is not one of %s", c.Logging.Level, strings.Join(logLevels, ", "))

	return errors.Join(errs...)
}
