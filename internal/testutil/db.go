package testutil

import (
	"fmt"
	"testing"

	"wayfarer/internal/database"
	"wayfarer/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory sqlite database private to t.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: is per connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedUsers inserts one user per handle with a derived full name and email.
func SeedUsers(t *testing.T, db *gorm.DB, handles ...string) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(handles))
	for _, handle := range handles {
		u := models.User{
			Username: handle,
			FullName: handle + " Tester",
			Email:    fmt.Sprintf("%s@example.com", handle),
		}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return users
}
