package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORAGE_DRIVER", "CACHE_DRIVER", "REDIS_URL", "SESSION_TTL", "COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, CacheMemory, cfg.CacheDriver, "in-memory records get an in-process cache")
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "MySQL")
	t.Setenv("CACHE_DRIVER", "none")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, StorageMySQL, cfg.StorageDriver)
	assert.Equal(t, CacheNone, cfg.CacheDriver)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, cfg.MySQLDSN, cfg.DSN())
}

func TestLoad_SQLStorageDefaultsToRedis(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("CACHE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, CacheRedis, cfg.CacheDriver)
	assert.Equal(t, cfg.PostgresDSN, cfg.DSN())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MemoryStorageWithExplicitRedisIsRejected(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_DRIVER", "redis")

	cfg := Load()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined with STORAGE_DRIVER=memory")
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "tomorrow")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:    "8080",
			StorageDriver: StorageMemory,
			CacheDriver:   CacheMemory,
			JWTSecret:     "secret",
			SessionTTL:    time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port not a number", mutate: func(c *Config) { c.ServerPort = "http" }, wantErr: "must be a number"},
		{name: "port out of range", mutate: func(c *Config) { c.ServerPort = "70000" }, wantErr: "between 1 and 65535"},
		{name: "unknown storage", mutate: func(c *Config) { c.StorageDriver = "mongo" }, wantErr: "unknown storage driver"},
		{name: "unknown cache", mutate: func(c *Config) { c.CacheDriver = "memcached" }, wantErr: "unknown cache driver"},
		{name: "redis without url", mutate: func(c *Config) {
			c.StorageDriver = StorageMySQL
			c.MySQLDSN = "dsn"
			c.CacheDriver = CacheRedis
			c.RedisURL = ""
		}, wantErr: "REDIS_URL"},
		{name: "redis over memory storage", mutate: func(c *Config) { c.CacheDriver = CacheRedis; c.RedisURL = "redis://localhost:6379" }, wantErr: "cannot be combined"},
		{name: "sqlite without path", mutate: func(c *Config) { c.StorageDriver = StorageSQLite; c.SQLitePath = "" }, wantErr: "SQLITE_PATH"},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StorageDriver = StoragePostgres; c.PostgresDSN = "" }, wantErr: "POSTGRES_DSN"},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
