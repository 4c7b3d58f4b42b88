package database

import (
	"errors"
	"fmt"
	"testing"

	"kenhavate/internal/config"
	"kenhavate/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections, "sqlite is pinned to a single connection")
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: DriverPostgres, DBHost: "localhost", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: DriverSQLite})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"wrapped duplicated key", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"pg foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestAutoMigrate_SingleDraftIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	first := models.Idea{Title: "First", Slug: "first", UserID: user.ID, Status: models.IdeaStatusDraft}
	require.NoError(t, db.Create(&first).Error)

	second := models.Idea{Title: "Second", Slug: "second", UserID: user.ID, Status: models.IdeaStatusDraft}
	err := db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	submitted := models.Idea{Title: "Third", Slug: "third", UserID: user.ID, Status: models.IdeaStatusSubmitted}
	assert.NoError(t, db.Create(&submitted).Error, "only drafts are unique per user")
}

func TestAutoMigrate_PendingRequestIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	owner := models.User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	guest := models.User{Name: "Guest", Email: "guest@example.com", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&guest).Error)
	idea := models.Idea{Title: "Idea", Slug: "idea", UserID: owner.ID, Status: models.IdeaStatusSubmitted}
	require.NoError(t, db.Create(&idea).Error)

	newRequest := func(status models.CollaborationRequestStatus) *models.CollaborationRequest {
		return &models.CollaborationRequest{
			IdeaID:          idea.ID,
			UserID:          guest.ID,
			Kind:            models.CollaborationKindRequest,
			Status:          status,
			PermissionLevel: models.PermissionSuggest,
		}
	}

	require.NoError(t, db.Create(newRequest(models.CollaborationStatusDeclined)).Error)
	require.NoError(t, db.Create(newRequest(models.CollaborationStatusPending)).Error)
	err := db.Create(newRequest(models.CollaborationStatusPending)).Error
	assert.True(t, IsUniqueViolation(err))
}
