package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Cache drivers.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	StorageDriver string
	MySQLDSN      string
	PostgresDSN   string
	SQLitePath    string
	ResetDB       bool
	CacheDriver   string
	RedisURL      string
	JWTSecret     string
	SessionTTL    time.Duration
	CookieSecure  bool
	LogLevel      string
	LogFormat     string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	storage := strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory))
	// Records kept in process memory start over on every restart, so a
	// shared cache would outlive them.
	defaultCache := CacheRedis
	if storage == StorageMemory {
		defaultCache = CacheMemory
	}

	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		StorageDriver: storage,
		MySQLDSN:      getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/expenses?charset=utf8mb4&parseTime=True&loc=UTC"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=expenses port=5432 sslmode=disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "expenses.db"),
		ResetDB:       getEnvBool("RESET_DB", false),
		CacheDriver:   strings.ToLower(getEnv("CACHE_DRIVER", defaultCache)),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}
}

// DSN returns the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	switch c.StorageDriver {
	case StorageMySQL:
		return c.MySQLDSN
	case StoragePostgres:
		return c.PostgresDSN
	case StorageSQLite:
		return c.SQLitePath
	}
	return ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.ServerPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.ServerPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageMySQL:
		if c.MySQLDSN == "" {
			problems = append(problems, "MYSQL_DSN is required when STORAGE_DRIVER=mysql")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required when STORAGE_DRIVER=sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage driver %q", c.StorageDriver))
	}

	switch c.CacheDriver {
	case CacheRedis:
		if c.RedisURL == "" {
			problems = append(problems, "REDIS_URL is required when CACHE_DRIVER=redis")
		}
		if c.StorageDriver == StorageMemory {
			problems = append(problems, "CACHE_DRIVER=redis cannot be combined with STORAGE_DRIVER=memory: cached records would outlive a restart")
		}
	case CacheMemory, CacheNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown cache driver %q", c.CacheDriver))
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
