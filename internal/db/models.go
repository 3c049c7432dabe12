package db

import (
	"time"

	"gorm.io/datatypes"
)

// DatasetSnapshot is one versioned upload of the source datasets plus
// their out-of-band overrides, stored as an opaque JSON payload under a
// fixed storage key. Versions increase monotonically; readers always
// take the highest version for a key and the retention worker prunes
// the superseded ones.
type DatasetSnapshot struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	StoreKey string `gorm:"uniqueIndex:idx_snapshot_version,priority:1;size:64;not null"`
	Version  int64  `gorm:"uniqueIndex:idx_snapshot_version,priority:2;not null"`

	// Payload is the serialized snapshot (the three collections, name
	// overrides, and manual classifications). The store treats it as an
	// opaque blob so the schema can evolve without migrations.
	Payload datatypes.JSON `gorm:"type:json"`
}

// Cohort is a saved, named filter specification. The filter is
// immutable once saved; only the display name and color may change.
// Membership is never stored here: it is recomputed against the
// current population on every read.
type Cohort struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Name  string `gorm:"size:128;not null"`
	Color string `gorm:"size:32"`

	// Filter is the serialized filter specification captured at
	// creation time.
	Filter datatypes.JSON `gorm:"type:json;not null"`
}
