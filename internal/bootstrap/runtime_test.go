package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"wayfarer/internal/config"
	"wayfarer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_SQLiteSeedsOnce(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "wayfarer.db"),
		Env:        "test",
	}

	for i := 0; i < 2; i++ {
		rt, err := InitRuntime(cfg, Options{SkipRedis: true, SeedTripSquad: true})
		require.NoError(t, err)
		assert.Nil(t, rt.Redis)

		var users int64
		require.NoError(t, rt.DB.Model(&models.User{}).Count(&users).Error)
		assert.EqualValues(t, 3, users, "run %d", i)

		var g models.Group
		require.NoError(t, rt.DB.Where("name = ?", "Trip Squad").First(&g).Error)

		rt.Close(context.Background())
	}
}
