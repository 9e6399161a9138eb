package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

// MetricsSnapshotStore persists append-only engagement observations keyed
// by (status_id, snapshot_type, snapshot_at).
type MetricsSnapshotStore struct {
	database.Repository[monitor.MetricsSnapshot, MetricsSnapshotModel]
}

// NewMetricsSnapshotStore creates a new MetricsSnapshotStore.
func NewMetricsSnapshotStore(db database.Database) *MetricsSnapshotStore {
	return &MetricsSnapshotStore{
		Repository: database.NewRepository[monitor.MetricsSnapshot, MetricsSnapshotModel](
			db, MetricsSnapshotMapper{}, "metrics snapshot"),
	}
}

// InsertIgnore inserts the snapshot, silently keeping the existing row on
// a natural-key conflict. Returns true when a new row was inserted.
func (s *MetricsSnapshotStore) InsertIgnore(ctx context.Context, snapshot monitor.MetricsSnapshot) (bool, error) {
	model := MetricsSnapshotMapper{}.ToModel(snapshot)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "status_id"}, {Name: "snapshot_type"}, {Name: "snapshot_at"},
		},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("insert metrics snapshot %q: %w", snapshot.StatusID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Derivation statements, one per snapshot type. Insert-or-ignore on the
// natural key keeps re-derivation after a partial import safe.
const (
	deriveInitialCaptureSQL = `
INSERT INTO post_metrics_snapshots
    (status_id, snapshot_type, snapshot_at, likes, reposts, replies, views, source)
SELECT status_id, 'initial_capture', discovered_at,
       initial_likes, initial_reposts, initial_replies, initial_views, ?
FROM posts
WHERE TRUE
ON CONFLICT (status_id, snapshot_type, snapshot_at) DO NOTHING`

	deriveLatestObservedSQL = `
INSERT INTO post_metrics_snapshots
    (status_id, snapshot_type, snapshot_at, likes, reposts, replies, views, source)
SELECT status_id, 'latest_observed', last_seen_at,
       likes, reposts, replies, views, ?
FROM posts
WHERE TRUE
ON CONFLICT (status_id, snapshot_type, snapshot_at) DO NOTHING`

	deriveRefresh24hSQL = `
INSERT INTO post_metrics_snapshots
    (status_id, snapshot_type, snapshot_at, likes, reposts, replies, views, source)
SELECT status_id, 'refresh_24h', refresh_24h_at,
       likes_24h, reposts_24h, replies_24h, views_24h, ?
FROM posts
WHERE refresh_24h_at IS NOT NULL
ON CONFLICT (status_id, snapshot_type, snapshot_at) DO NOTHING`
)

// DeriveFromPosts materializes initial_capture, latest_observed, and
// refresh_24h snapshots from the current posts table. The refresh_24h
// snapshot is only generated for posts with a populated 24-hour refresh
// timestamp.
func (s *MetricsSnapshotStore) DeriveFromPosts(ctx context.Context, source string) (monitor.SnapshotCounts, error) {
	var counts monitor.SnapshotCounts

	statements := []struct {
		name string
		sql  string
		dest *int64
	}{
		{string(monitor.SnapshotInitialCapture), deriveInitialCaptureSQL, &counts.InitialCapture},
		{string(monitor.SnapshotLatestObserved), deriveLatestObservedSQL, &counts.LatestObserved},
		{string(monitor.SnapshotRefresh24h), deriveRefresh24hSQL, &counts.Refresh24h},
	}
	for _, stmt := range statements {
		result := s.DB(ctx).Exec(stmt.sql, source)
		if result.Error != nil {
			return counts, fmt.Errorf("derive %s snapshots: %w", stmt.name, result.Error)
		}
		*stmt.dest = result.RowsAffected
	}
	return counts, nil
}
