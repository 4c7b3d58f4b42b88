// Package bootstrap wires the database, schema and Redis for the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"kenhavate/internal/cache"
	"kenhavate/internal/config"
	"kenhavate/internal/database"
	"kenhavate/internal/models"
	"kenhavate/internal/observability"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database, brings the schema up to date and
// connects to Redis. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development reviewer: %w", err)
	}

	return db, cache.InitRedis(ctx, cfg.RedisURL), nil
}

// EnsureDevAdmin creates or promotes the configured reviewer account. It only
// acts in development with DEV_BOOTSTRAP_ADMIN enabled.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		return errors.New("DEV_ADMIN_EMAIL must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}
	name := strings.TrimSpace(cfg.DevAdminName)
	if name == "" {
		name = "Review Desk"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash reviewer password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		findErr := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			return tx.Create(&models.User{
				Name:     name,
				Email:    email,
				Password: string(hashed),
				IsAdmin:  true,
			}).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&user).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}

	observability.Logger.Info("development reviewer ensured", slog.String("email", email))
	return nil
}
