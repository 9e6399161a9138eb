package monitor

import "time"

// SnapshotType identifies which observation a metrics snapshot captures.
type SnapshotType string

// SnapshotType values.
const (
	SnapshotInitialCapture SnapshotType = "initial_capture"
	SnapshotLatestObserved SnapshotType = "latest_observed"
	SnapshotRefresh24h     SnapshotType = "refresh_24h"
)

// WatchAccount is a normalized watch-list entry, keyed by handle.
type WatchAccount struct {
	Handle  string
	Tier    Tier
	Note    *string
	AddedAt time.Time
}

// EngagementCounts groups the four engagement metrics of a post.
type EngagementCounts struct {
	Likes   int
	Reposts int
	Replies int
	Views   int
}

// Post is a normalized monitored post, keyed by StatusID. All timestamps
// are UTC.
type Post struct {
	StatusID            string
	URL                 string
	AuthorHandle        string
	AuthorDisplay       *string
	BodyText            *string
	PostedRelative      *string
	SourceQuery         *string
	WatchTier           Tier
	IsSignificant       bool
	SignificanceReason  *string
	SignificanceVersion string

	Current EngagementCounts
	Initial EngagementCounts
	At24h   EngagementCounts

	Refresh24hAt     *time.Time
	Refresh24hStatus *string
	Refresh24hDelta  EngagementCounts

	DiscoveredAt time.Time
	LastSeenAt   time.Time
}

// Report is a normalized delivery record for a significant post.
type Report struct {
	StatusID    string
	ReportedAt  time.Time
	Channel     *string
	Summary     *string
	Destination *string
}

// PipelineRun is one collector execution, keyed by (RunAt, Mode, Source).
type PipelineRun struct {
	RunAt            time.Time
	Mode             RunMode
	FetchedCount     int
	SignificantCount int
	ReportedCount    int
	Note             *string
	Source           string
}

// Embedding is a normalized text embedding for a post, keyed by StatusID.
type Embedding struct {
	StatusID  string
	Backend   string
	Model     string
	Dims      int
	Vector    []float64
	TextHash  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MetricsSnapshot is an append-only engagement observation, keyed by
// (StatusID, SnapshotType, SnapshotAt).
type MetricsSnapshot struct {
	StatusID     string
	SnapshotType SnapshotType
	SnapshotAt   time.Time
	Counts       EngagementCounts
	Source       string
}
