package handlers

import (
	dbpkg "userinsight/internal/db"
	"userinsight/internal/dataset"
	"userinsight/internal/scoring"
)

// loadPopulation rebuilds the scored population from the current
// snapshot: aggregate, overlay overrides, score. Recomputed in full on
// every read; nothing derived is cached or persisted.
func loadPopulation(snapshots *dbpkg.SnapshotStore) ([]scoring.ScoredUser, error) {
	snap, _, err := snapshots.Load()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []scoring.ScoredUser{}, nil
	}
	users := dataset.Aggregate(snap.Code, snap.Flags, snap.Usage)
	users = dataset.ApplyOverrides(users, snap.Overrides)
	return scoring.ScoreAll(users), nil
}
