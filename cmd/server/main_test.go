package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"expensetracker/internal/cache"
	"expensetracker/internal/config"
)

func TestOpenCaches_SessionsGetTheirOwnStore(t *testing.T) {
	tests := []struct {
		driver   string
		dataType any
	}{
		{driver: config.CacheMemory, dataType: &cache.Local{}},
		{driver: config.CacheNone, dataType: cache.Nop{}},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{StorageDriver: config.StorageMemory, CacheDriver: tt.driver}
			data, sessions, err := openCaches(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = data.Close()
				_ = sessions.Close()
			})

			assert.IsType(t, tt.dataType, data)
			assert.IsType(t, &cache.TTLMap{}, sessions)
		})
	}
}

func TestDefaultConfigDoesNotPairMemoryStorageWithRedis(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("CACHE_DRIVER", "")

	cfg := config.Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.NotEqual(t, config.CacheRedis, cfg.CacheDriver)
}
