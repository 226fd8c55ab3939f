package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.Origin)
	assert.True(t, cfg.Server.LegacyStatus)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "referrals.db", cfg.SQLite.Path)
	assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HTTP_LEGACY_STATUS", "false")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.LegacyStatus)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.Equal(t,
		"host=db port=5432 user=postgres password=secret dbname=referrals sslmode=disable TimeZone=UTC",
		cfg.PostgresDSN())
}

func TestNeedsRedisForRedisDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORAGE_DRIVER", "mongo"},
		{"port out of range", "PORT", "70000"},
		{"port not a number", "PORT", "http"},
		{"bad duration", "CACHE_TTL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
