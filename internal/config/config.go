package config

import (
	"os"
	"strconv"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	DatabaseURL string

	// SnapshotRetentionDays is how long superseded dataset snapshot
	// versions are kept before the retention worker prunes them. The
	// latest version is always kept regardless of age.
	SnapshotRetentionDays int

	ListenAddr string

	// UploadAPIKey, if set, is registered as an active upload key owned
	// by the bootstrap admin so exporters can push datasets without a
	// manual key-creation step.
	UploadAPIKey string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:             getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:         getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:           os.Getenv("APP_DATABASE_URL"),
		ListenAddr:            getenv("APP_LISTEN_ADDR", ":8080"),
		SnapshotRetentionDays: 30,
		UploadAPIKey:          getenv("APP_UPLOAD_API_KEY", ""),
	}

	if v := os.Getenv("APP_SNAPSHOT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.SnapshotRetentionDays = days
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
