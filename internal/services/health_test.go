package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:"}
	db := testhelpers.NewTestDB(t)

	result := HealthCheck(ctx, cfg, db, nil, nil)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "disabled", result.Cache)
	assert.Equal(t, "disabled", result.Authorizer)
	assert.Equal(t, "sqlite", result.Details["database_type"])

	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	result = HealthCheck(ctx, cfg, db, c, nil)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Cache)
	assert.Equal(t, "redis", result.Details["cache_type"])

	mr.Close()
	result = HealthCheck(ctx, cfg, db, c, nil)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Cache)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:"}
	db := testhelpers.NewTestDB(t)
	require.NoError(t, database.Close(db))

	result := HealthCheck(context.Background(), cfg, db, nil, nil)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Database)
	assert.Contains(t, result.ErrorMessage, "Database ping failed")
}
