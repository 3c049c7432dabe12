package db

import (
	"time"
)

// APIKey is a bearer token for uploading datasets from an exporting
// system. Each key belongs to a dashboard user and names the system it
// speaks for; that name becomes the "source" label on ingest metrics.
type APIKey struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// UserID links this key to the user who owns it.
	UserID uint `gorm:"index;not null"`

	// Name is a user-friendly identifier for the exporting system
	// (e.g. "usage-exporter").
	Name string `gorm:"size:128;not null"`

	// Environment indicates where the exporter runs (prod, staging, dev).
	Environment string `gorm:"size:32;not null"`

	// Key is the actual bearer token value.
	Key string `gorm:"uniqueIndex;size:255;not null"`

	// Active indicates whether this key is currently enabled.
	Active bool `gorm:"default:true"`

	// User is the owner of this key.
	User User `gorm:"foreignKey:UserID"`
}
