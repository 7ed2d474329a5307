package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipeforge/backend/config"
	"github.com/pageza/recipeforge/backend/internal/database"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/testhelpers"
)

func TestDSN(t *testing.T) {
	dsn := database.DSN(&config.Config{
		DBHost: "db", DBPort: "5433", DBUser: "app", DBPassword: "secret", DBName: "recipes",
	})
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=recipes sslmode=disable", dsn)
}

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "recipes.db")}
	db, err := database.Open(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, database.RunMigrations(db, "does-not-matter", logger.Nop()))
	require.NoError(t, database.HealthCheck(context.Background(), db))

	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
}

func TestApplySQLMigrationsIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	db := testhelpers.SetupPostgres(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, database.ApplySQLMigrations(sqlDB, testhelpers.MigrationsDir(), logger.Nop()))

	var applied int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	files, err := filepath.Glob(filepath.Join(testhelpers.MigrationsDir(), "*.sql"))
	require.NoError(t, err)
	assert.Equal(t, len(files), applied)

	var hasVector bool
	require.NoError(t, sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&hasVector))
	assert.True(t, hasVector)
}
