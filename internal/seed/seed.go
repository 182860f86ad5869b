package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/apotek/internal/auth/domain"
	"github.com/smallbiznis/apotek/internal/auth/password"
	"github.com/smallbiznis/apotek/internal/config"
	"gorm.io/gorm"
)

const (
	defaultAdminName     = "Apotek Admin"
	defaultAdminEmail    = "admin@apotek.local"
	defaultAdminPassword = "admin12345"
)

// EnsureAdmin creates the bootstrap admin when no admin account exists yet.
// It reports whether a user was created.
func EnsureAdmin(ctx context.Context, db *gorm.DB, node *snowflake.Node, cfg config.BootstrapConfig) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	if node == nil {
		return false, errors.New("seed id generator is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		email = defaultAdminEmail
	}
	secret := cfg.AdminPassword
	if strings.TrimSpace(secret) == "" {
		secret = defaultAdminPassword
	}
	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = defaultAdminName
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admins int64
		if err := tx.Model(&authdomain.User{}).
			Where("role = ?", authdomain.RoleAdmin).
			Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			return nil
		}

		var existing authdomain.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			return tx.Model(&authdomain.User{}).
				Where("id = ?", existing.ID).
				Update("role", authdomain.RoleAdmin).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(secret)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user := authdomain.User{
			ID:           node.Generate(),
			Name:         name,
			Email:        email,
			PasswordHash: hashed,
			Role:         authdomain.RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
