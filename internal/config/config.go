// Package config loads the settings shared by tradehub-server,
// tradehub-migrate and tradehub-admin. Values come from defaults, then an
// optional YAML file, then TRADEHUB_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Events    EventsConfig    `mapstructure:"events"`
	Mail      MailConfig      `mapstructure:"mail"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

// ServerConfig is the REST listener. MaxBodySize caps JSON request bodies.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// DatabaseConfig selects the document store. The pool settings apply to
// postgres; Path and the pragmas apply to sqlite; memory ignores both.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`

	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	Path            string `mapstructure:"path"`
	JournalMode     string `mapstructure:"journal_mode"`
	BusyTimeout     int    `mapstructure:"busy_timeout"` // ms
	CacheSize       int    `mapstructure:"cache_size"`
	SynchronousMode string `mapstructure:"synchronous_mode"`
}

// URL is the postgres:// form golang-migrate expects.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// DSN is the keyword/value form pgx parses.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig enables the shared session cache and record locks. Without
// it sessions live in process memory.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// KeyPrefix lets several deployments share one Redis database.
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig is the session and password policy.
type AuthConfig struct {
	// JWTSecret signs HS256 bearer tokens. The server generates an
	// ephemeral one when it is empty.
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`

	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	RememberTTL time.Duration `mapstructure:"remember_ttl"`

	// MaxLoginAttempts consecutive failures lock an email for
	// LockoutDuration.
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`

	// MinPasswordScore is how many of the five strength rules a new
	// password must satisfy.
	MinPasswordScore int `mapstructure:"min_password_score"`

	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
}

// AdminConfig controls creation of the default super admin at startup. An
// empty Password makes the server generate one and log it once.
type AdminConfig struct {
	Bootstrap bool   `mapstructure:"bootstrap"`
	Email     string `mapstructure:"email"`
	Password  string `mapstructure:"password"`
}

// SeedConfig fills an empty store with demo users and quotes.
type SeedConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DemoPassword string `mapstructure:"demo_password"`
}

type AnalyticsConfig struct {
	// ActiveWindow is how recent a login or signup must be to count.
	ActiveWindow time.Duration `mapstructure:"active_window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EventsConfig publishes document changes to a RabbitMQ topic exchange.
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// MailConfig delivers password reset mail. Provider "log" only logs the
// message.
type MailConfig struct {
	Provider string `mapstructure:"provider"`
	Domain   string `mapstructure:"domain"`
	APIKey   string `mapstructure:"api_key"`
	Sender   string `mapstructure:"sender"`
	ResetURL string `mapstructure:"reset_url"` // the token is appended
}

// BackupConfig is the S3-compatible bucket snapshots are exported to.
type BackupConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// LoggingConfig picks the zerolog level and sink. The rotation settings
// apply when Output is "file".
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`

	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig exposes Prometheus metrics. Port 0 serves them on the API
// listener instead of a separate one.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig allows each client IP Requests per Window.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}
