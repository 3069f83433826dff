// Package bootstrap wires the runtime dependencies shared by the server and
// the operator commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"twitt/internal/cache"
	"twitt/internal/config"
	"twitt/internal/database"
	"twitt/internal/models"
	"twitt/internal/observability"
	"twitt/internal/validation"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultRootUsername = "twitt_root"
	defaultRootEmail    = "root@twitt.local"
)

// InitRuntime connects to the database and Redis and ensures the development
// root admin. A nil Redis client means Redis was unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevRootAdmin creates or promotes the configured root account. It only
// acts in development with DEV_BOOTSTRAP_ROOT enabled.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = defaultRootUsername
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevRootEmail))
	if email == "" {
		email = defaultRootEmail
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}
	if err := validation.ValidatePassword(cfg.DevRootPassword); err != nil {
		return fmt.Errorf("DEV_ROOT_PASSWORD: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashed),
				IsAdmin:  true,
				IsActive: true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		}

		updates := map[string]any{"is_admin": true, "is_active": true}
		if cfg.DevRootForceCredentials {
			updates["username"] = username
			updates["password"] = string(hashed)
		}
		return tx.Model(&root).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	observability.FromContext(ctx).Info("development root admin ensured", zap.String("email", email))
	return nil
}
