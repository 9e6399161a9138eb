package monitor

import (
	"time"

	"github.com/paulbrigner/xmonitor/domain/query"
)

// WithStatusID filters by the "status_id" column.
func WithStatusID(id string) query.Option {
	return query.WithCondition("status_id", id)
}

// WithStatusIDIn filters by the "status_id" column using IN.
func WithStatusIDIn(ids []string) query.Option {
	return query.WithConditionIn("status_id", ids)
}

// WithHandle filters by the "handle" column.
func WithHandle(handle string) query.Option {
	return query.WithCondition("handle", handle)
}

// WithHandleIn filters watch accounts whose lowered handle is in handles.
func WithHandleIn(handles []string) query.Option {
	return query.WithWhere("lower(handle) IN ?", handles)
}

// WithAuthorHandleIn filters posts whose lowered author handle is in handles.
func WithAuthorHandleIn(handles []string) query.Option {
	return query.WithWhere("lower(author_handle) IN ?", handles)
}

// WithRunKey filters pipeline runs by their (run_at, mode, source) key.
func WithRunKey(runAt time.Time, mode RunMode, source string) query.Option {
	return query.WithWhere("run_at = ? AND mode = ? AND source = ?", runAt, string(mode), source)
}

// WithSnapshotType filters by the "snapshot_type" column.
func WithSnapshotType(t SnapshotType) query.Option {
	return query.WithCondition("snapshot_type", string(t))
}
