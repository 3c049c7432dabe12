package db

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"userinsight/internal/dataset"
)

// SnapshotKey is the fixed storage key under which the current dataset
// snapshot lives.
const SnapshotKey = "datasets/current"

// SnapshotPayload is the value the snapshot store persists: the three
// source collections as last uploaded, plus the out-of-band overrides
// that must survive re-uploads.
type SnapshotPayload struct {
	UploadedAt time.Time `json:"uploaded_at"`

	Code  []dataset.CodeMetrics   `json:"code,omitempty"`
	Flags []dataset.FeatureFlags  `json:"flags,omitempty"`
	Usage []dataset.UsageCounters `json:"usage,omitempty"`

	Overrides dataset.Overrides `json:"overrides"`
}

// SnapshotStore reads and writes versioned dataset snapshots. Writes
// append a new version rather than updating in place, so a failed write
// never corrupts the snapshot a reader just loaded.
type SnapshotStore struct {
	db  *gorm.DB
	key string
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db, key: SnapshotKey}
}

// Load returns the highest-version snapshot and its version number, or
// (nil, 0, nil) when nothing has been uploaded yet.
func (s *SnapshotStore) Load() (*SnapshotPayload, int64, error) {
	var row DatasetSnapshot
	err := s.db.Where("store_key = ?", s.key).Order("version DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var payload SnapshotPayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, 0, err
	}
	return &payload, row.Version, nil
}

// Save persists payload as a new snapshot version and returns the
// version it was stored under.
func (s *SnapshotStore) Save(payload *SnapshotPayload) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	var latest int64
	if err := s.db.Model(&DatasetSnapshot{}).
		Where("store_key = ?", s.key).
		Select("COALESCE(MAX(version), 0)").
		Scan(&latest).Error; err != nil {
		return 0, err
	}

	row := DatasetSnapshot{
		StoreKey: s.key,
		Version:  latest + 1,
		Payload:  datatypes.JSON(body),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.Version, nil
}

// Clear removes every stored version for this key.
func (s *SnapshotStore) Clear() error {
	return s.db.Where("store_key = ?", s.key).Delete(&DatasetSnapshot{}).Error
}
