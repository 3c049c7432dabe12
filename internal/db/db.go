package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"userinsight/internal/config"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate the core tables.
	if err := db.AutoMigrate(&User{}, &APIKey{}, &DatasetSnapshot{}, &Cohort{}); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureBootstrapAdmin makes sure there is at least one admin user
// corresponding to the bootstrap credentials in config. If a user with
// that username already exists, it is left as-is.
func EnsureBootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&User{}).Where("username = ?", cfg.AdminUser).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &User{
		Username:     cfg.AdminUser,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}

	return db.Create(admin).Error
}

// EnsureBootstrapUploadKey ensures the bootstrap admin owns an active
// upload key matching APP_UPLOAD_API_KEY, so exporters configured with
// that key can push datasets immediately. If the key exists but belongs
// to another user, it is reassigned to admin.
func EnsureBootstrapUploadKey(db *gorm.DB, cfg *config.Config) error {
	if cfg.UploadAPIKey == "" {
		return nil
	}

	var admin User
	if err := db.Where("username = ?", cfg.AdminUser).First(&admin).Error; err != nil {
		return err
	}

	// Use Find so "not found" doesn't log as an error.
	var existing APIKey
	if err := db.Where("key = ?", cfg.UploadAPIKey).Limit(1).Find(&existing).Error; err == nil && existing.ID != 0 {
		if existing.UserID != admin.ID {
			existing.UserID = admin.ID
			existing.Name = "bootstrap-uploader"
			existing.Environment = "internal"
			existing.Active = true
			return db.Save(&existing).Error
		}
		return nil
	}

	key := &APIKey{
		UserID:      admin.ID,
		Name:        "bootstrap-uploader",
		Environment: "internal",
		Key:         cfg.UploadAPIKey,
		Active:      true,
	}

	return db.Create(key).Error
}
