package db

import (
	"time"
)

// User is an analyst account that can sign in to the dashboard and own
// upload keys. The bootstrap admin (from env) is created as a row in
// this table on startup.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// IsAdmin marks users that can manage other users and upload keys.
	// The bootstrap admin will have IsAdmin=true.
	IsAdmin bool `gorm:"default:false"`
}
