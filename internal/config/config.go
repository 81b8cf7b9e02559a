package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration loaded from environment, optionally
// overlaid with a TOML bootstrap file (§10.3). Environment variables always
// win over the file, so a deployment can ship a checked-in defaults file and
// still override individual knobs at the process level.
type Config struct {
	Env       string
	Database  DatabaseConfig
	Server    ServerConfig
	Cache     CacheConfig
	Dashboard DashboardConfig
	Sync      SyncConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds the dashboard HTTP server's listen settings.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CacheConfig holds Redis cache/pubsub settings.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DashboardConfig holds the shared-token guard for the read-only operator
// dashboard (§12.3). There is no per-user login: every request carries the
// same bearer token, checked in constant time.
type DashboardConfig struct {
	Token string
}

// SyncConfig holds the engine's tunables (§5, §8): concurrency limits,
// request timeouts, and the early-stop thresholds for incremental sync.
type SyncConfig struct {
	MaxConcurrentBodies int
	MaxConcurrentHosts  int
	RequestTimeout      time.Duration
	MinPages            int
	StalePages          int
	ProbeKind           string
	DefaultFull         bool
}

// fileConfig mirrors Config's shape for TOML decoding. Only fields present
// in the file are applied; env vars are read independently and always take
// precedence (applied after the file in Load).
type fileConfig struct {
	Env      string `toml:"env"`
	Database struct {
		Host    string `toml:"host"`
		Port    int    `toml:"port"`
		User    string `toml:"user"`
		DBName  string `toml:"dbname"`
		SSLMode string `toml:"sslmode"`
	} `toml:"database"`
	Sync struct {
		MaxConcurrentBodies int    `toml:"max_concurrent_bodies"`
		MaxConcurrentHosts  int    `toml:"max_concurrent_hosts"`
		MinPages            int    `toml:"min_pages"`
		StalePages          int    `toml:"stale_pages"`
		ProbeKind           string `toml:"probe_kind"`
		DefaultFull         bool   `toml:"default_full"`
	} `toml:"sync"`
}

// Load reads configuration from an optional TOML bootstrap file (path given
// by OPARLSYNC_CONFIG, skipped if unset or missing) and then environment
// variables, which always win.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("OPARLSYNC_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &fc); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Env: getEnv("ENV", orDefault(fc.Env, "development")),
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", orDefault(fc.Database.Host, "localhost")),
			Port:            getEnvInt("DB_PORT", orDefaultInt(fc.Database.Port, 5432)),
			User:            getEnv("DB_USER", orDefault(fc.Database.User, "postgres")),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", orDefault(fc.Database.DBName, "oparlsync")),
			SSLMode:         getEnv("DB_SSLMODE", orDefault(fc.Database.SSLMode, "disable")),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Addr:     getEnv("CACHE_ADDR", "localhost:6379"),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", 1*time.Hour),
		},
		Dashboard: DashboardConfig{
			Token: getEnv("DASHBOARD_TOKEN", ""),
		},
		Sync: SyncConfig{
			MaxConcurrentBodies: getEnvInt("SYNC_MAX_CONCURRENT_BODIES", orDefaultInt(fc.Sync.MaxConcurrentBodies, 4)),
			MaxConcurrentHosts:  getEnvInt("SYNC_MAX_CONCURRENT_HOSTS", orDefaultInt(fc.Sync.MaxConcurrentHosts, 2)),
			RequestTimeout:      getEnvDuration("SYNC_REQUEST_TIMEOUT", 30*time.Second),
			MinPages:            getEnvInt("SYNC_MIN_PAGES", orDefaultInt(fc.Sync.MinPages, 10)),
			StalePages:          getEnvInt("SYNC_STALE_PAGES", orDefaultInt(fc.Sync.StalePages, 5)),
			ProbeKind:           getEnv("SYNC_PROBE_KIND", orDefault(fc.Sync.ProbeKind, "meeting")),
			DefaultFull:         getEnvBool("SYNC_DEFAULT_FULL", fc.Sync.DefaultFull),
		},
	}
	return cfg, nil
}

// Validate checks required configuration. Returns an error if invalid.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Sync.MinPages <= 0 {
		return fmt.Errorf("SYNC_MIN_PAGES must be positive")
	}
	if c.Sync.StalePages <= 0 {
		return fmt.Errorf("SYNC_STALE_PAGES must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func orDefault(v, defaultVal string) string {
	if v == "" {
		return defaultVal
	}
	return v
}

func orDefaultInt(v, defaultVal int) int {
	if v == 0 {
		return defaultVal
	}
	return v
}
