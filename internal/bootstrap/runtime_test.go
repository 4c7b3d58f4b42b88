package bootstrap

import (
	"context"
	"testing"

	"kenhavate/internal/config"
	"kenhavate/internal/database"
	"kenhavate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminName:      "Review Desk",
		DevAdminEmail:     "Reviewer@KeNHA.local",
		DevAdminPassword:  "correct-horse-battery",
	}
}

func TestEnsureDevAdmin_CreatesReviewer(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var user models.User
	require.NoError(t, db.Where("email = ?", "reviewer@kenha.local").First(&user).Error)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "Review Desk", user.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct-horse-battery")))

	// idempotent
	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDevAdmin_PromotesExistingUser(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.User{Name: "Existing", Email: "reviewer@kenha.local", Password: "x"}).Error)

	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var user models.User
	require.NoError(t, db.Where("email = ?", "reviewer@kenha.local").First(&user).Error)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "Existing", user.Name)
}

func TestEnsureDevAdmin_Skipped(t *testing.T) {
	db := newTestDB(t)

	prod := devConfig()
	prod.Env = "production"
	require.NoError(t, EnsureDevAdmin(context.Background(), prod, db))

	off := devConfig()
	off.DevBootstrapAdmin = false
	require.NoError(t, EnsureDevAdmin(context.Background(), off, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureDevAdmin_RequiresPassword(t *testing.T) {
	cfg := devConfig()
	cfg.DevAdminPassword = ""
	assert.Error(t, EnsureDevAdmin(context.Background(), cfg, newTestDB(t)))
}
