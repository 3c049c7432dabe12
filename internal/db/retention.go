package db

import (
	"log"
	"time"

	"gorm.io/gorm"

	"userinsight/internal/config"
)

// runRetentionOnce performs a single pass of retention cleanup,
// deleting superseded snapshot versions older than the retention
// window. The highest version for each key is always kept, however old.
func runRetentionOnce(db *gorm.DB, retentionDays int) error {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	return db.
		Where("created_at <= ?", cutoff).
		Where("(store_key, version) NOT IN (?)",
			db.Model(&DatasetSnapshot{}).Select("store_key, MAX(version)").Group("store_key"),
		).
		Delete(&DatasetSnapshot{}).Error
}

// StartRetentionWorker launches a background goroutine that prunes old
// snapshot versions once at startup and then once per day.
func StartRetentionWorker(db *gorm.DB, cfg *config.Config) {
	go func() {
		if err := runRetentionOnce(db, cfg.SnapshotRetentionDays); err != nil {
			log.Printf("snapshot retention error (startup): %v", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := runRetentionOnce(db, cfg.SnapshotRetentionDays); err != nil {
				log.Printf("snapshot retention error: %v", err)
			}
		}
	}()
}
