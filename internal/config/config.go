// Package config provides configuration management for the FreshDeal server.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverXMLFile  = "xmlfile"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Purchase lock modes.
const (
	LockModeGlobal  = "global"
	LockModeProduct = "product"
)

// Password hashing schemes.
const (
	HashingPlain  = "plain"
	HashingBcrypt = "bcrypt"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Purchase PurchaseConfig `mapstructure:"purchase"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds TCP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// MaxClients bounds the number of connections handled concurrently.
	MaxClients int `mapstructure:"max_clients"`

	// AcceptPollInterval is how long accept blocks before the shutdown flag is checked.
	AcceptPollInterval time.Duration `mapstructure:"accept_poll_interval"`

	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownGrace is how long in-flight connections may run after shutdown
	// begins before they are force-closed.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`

	// MaxRequestBytes caps the size of a single request.
	MaxRequestBytes int `mapstructure:"max_request_bytes"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Driver is "xmlfile", "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`

	// DataDir holds the XML documents when Driver is "xmlfile".
	DataDir string `mapstructure:"data_dir"`

	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig holds SQLite settings (used when Driver is "sqlite").
type SQLiteConfig struct {
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF
}

// PostgresConfig holds PostgreSQL settings (used when Driver is "postgres").
type PostgresConfig struct {
	// URL, when set, is used as the connection string verbatim.
	URL string `mapstructure:"url"`

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
}

// DSN returns the PostgreSQL connection string.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// PurchaseConfig controls how concurrent purchases are serialized.
type PurchaseConfig struct {
	// LockMode is "global" (one lock for every product) or "product"
	// (one lock per product id).
	LockMode string `mapstructure:"lock_mode"`
}

// AuthConfig holds credential and authorization settings.
type AuthConfig struct {
	// PasswordHashing is "plain" (passwords stored as given) or "bcrypt".
	PasswordHashing string `mapstructure:"password_hashing"`

	// BcryptCost is the bcrypt work factor when PasswordHashing is "bcrypt".
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// EnforceAdminRoles restricts admin actions to approved ADMIN accounts.
	EnforceAdminRoles bool `mapstructure:"enforce_admin_roles"`

	// BootstrapAdmin is created at startup if it does not exist yet.
	BootstrapAdmin BootstrapAdminConfig `mapstructure:"bootstrap_admin"`
}

// BootstrapAdminConfig names the initial admin account.
type BootstrapAdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`

	// AuditConnections records CLIENT_CONNECT and CLIENT_DISCONNECT entries.
	AuditConnections bool `mapstructure:"audit_connections"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if the ops HTTP server is started.
	Enabled bool `mapstructure:"enabled"`

	// Port is the port for the ops HTTP server.
	Port int `mapstructure:"port"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with FRESHDEAL_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FRESHDEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/freshdeal")
	}

	// Config file is optional - defaults and environment variables are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_clients", 50)
	v.SetDefault("server.accept_poll_interval", time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_grace", 5*time.Second)
	v.SetDefault("server.max_request_bytes", 1<<20) // 1MB

	// Storage defaults
	v.SetDefault("storage.driver", DriverXMLFile)
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.sqlite.path", "./data/freshdeal.db")
	v.SetDefault("storage.sqlite.journal_mode", "WAL")
	v.SetDefault("storage.sqlite.busy_timeout", 5000)
	v.SetDefault("storage.sqlite.synchronous_mode", "NORMAL")
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "freshdeal")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.database", "freshdeal")
	v.SetDefault("storage.postgres.ssl_mode", "prefer")
	v.SetDefault("storage.postgres.max_open_conns", 10)
	v.SetDefault("storage.postgres.max_idle_conns", 2)
	v.SetDefault("storage.postgres.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("storage.postgres.conn_max_idle_time", 5*time.Minute)

	// Purchase defaults
	v.SetDefault("purchase.lock_mode", LockModeGlobal)

	// Auth defaults
	v.SetDefault("auth.password_hashing", HashingPlain)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.enforce_admin_roles", false)
	v.SetDefault("auth.bootstrap_admin.username", "")
	v.SetDefault("auth.bootstrap_admin.password", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)
	v.SetDefault("logging.audit_connections", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	if c.Server.MaxClients < 1 {
		return fmt.Errorf("server.max_clients must be at least 1")
	}
	if c.Server.AcceptPollInterval <= 0 {
		return fmt.Errorf("server.accept_poll_interval must be positive")
	}
	if c.Server.MaxRequestBytes < 64 {
		return fmt.Errorf("server.max_request_bytes must be at least 64")
	}

	// Validate storage configuration
	switch c.Storage.Driver {
	case DriverXMLFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for xmlfile driver")
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.Postgres.URL == "" {
			if c.Storage.Postgres.Host == "" {
				return fmt.Errorf("storage.postgres.host is required for postgres driver")
			}
			if c.Storage.Postgres.Database == "" {
				return fmt.Errorf("storage.postgres.database is required for postgres driver")
			}
		}
	default:
		return fmt.Errorf("storage.driver must be 'xmlfile', 'sqlite' or 'postgres'")
	}

	// Validate purchase configuration
	if c.Purchase.LockMode != LockModeGlobal && c.Purchase.LockMode != LockModeProduct {
		return fmt.Errorf("purchase.lock_mode must be 'global' or 'product'")
	}

	// Validate auth configuration
	switch c.Auth.PasswordHashing {
	case HashingPlain:
	case HashingBcrypt:
		if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
			return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
		}
	default:
		return fmt.Errorf("auth.password_hashing must be 'plain' or 'bcrypt'")
	}
	if c.Auth.BootstrapAdmin.Username != "" && c.Auth.BootstrapAdmin.Password == "" {
		return fmt.Errorf("auth.bootstrap_admin.password is required when a bootstrap admin is configured")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
