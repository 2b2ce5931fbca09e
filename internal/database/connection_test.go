package database

import (
	"testing"

	"github.com/localnerve/homespace/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		dbType string
		name   string
	}{
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"sqlserver", "sqlserver"},
		{"mssql", "sqlserver"},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			cfg := &config.Config{
				DBType:     tt.dbType,
				DBHost:     "localhost",
				DBPort:     "5432",
				DBDatabase: "homespace",
				DBUser:     "homespace",
				DBPassword: "secret",
			}
			d, err := Dialector(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Error, logLevel("error"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel("warn"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

func TestConnectSQLitePinsOneConnection(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", DBLogLevel: "silent", DBConnectionLimit: 10}
	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	for _, table := range []string{"users", "spaces", "widgets", "links", "space_bookmarks"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
