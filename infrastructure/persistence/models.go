package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores a float vector as a JSON array so the same column
// type works on both SQLite and PostgreSQL.
type Float64Slice []float64

func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Float64Slice: %T", value)
	}
	return json.Unmarshal(data, f)
}

// WatchAccountModel is a monitored account row.
type WatchAccountModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Handle    string    `gorm:"column:handle;not null;uniqueIndex:idx_watch_accounts_handle"`
	Tier      string    `gorm:"column:tier;not null"`
	Note      *string   `gorm:"column:note"`
	AddedAt   time.Time `gorm:"column:added_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (WatchAccountModel) TableName() string { return "watch_accounts" }

// PostModel is a captured post and its engagement metrics.
type PostModel struct {
	ID                  int64      `gorm:"column:id;primaryKey;autoIncrement"`
	StatusID            string     `gorm:"column:status_id;not null;uniqueIndex:idx_posts_status_id"`
	URL                 string     `gorm:"column:url;not null"`
	AuthorHandle        string     `gorm:"column:author_handle;not null;index:idx_posts_author_handle"`
	AuthorDisplay       *string    `gorm:"column:author_display"`
	BodyText            *string    `gorm:"column:body_text"`
	PostedRelative      *string    `gorm:"column:posted_relative"`
	SourceQuery         *string    `gorm:"column:source_query"`
	WatchTier           *string    `gorm:"column:watch_tier"`
	IsSignificant       bool       `gorm:"column:is_significant;not null"`
	SignificanceReason  *string    `gorm:"column:significance_reason"`
	SignificanceVersion string     `gorm:"column:significance_version;not null"`
	Likes               int        `gorm:"column:likes;not null"`
	Reposts             int        `gorm:"column:reposts;not null"`
	Replies             int        `gorm:"column:replies;not null"`
	Views               int        `gorm:"column:views;not null"`
	InitialLikes        int        `gorm:"column:initial_likes;not null"`
	InitialReposts      int        `gorm:"column:initial_reposts;not null"`
	InitialReplies      int        `gorm:"column:initial_replies;not null"`
	InitialViews        int        `gorm:"column:initial_views;not null"`
	Likes24h            int        `gorm:"column:likes_24h;not null"`
	Reposts24h          int        `gorm:"column:reposts_24h;not null"`
	Replies24h          int        `gorm:"column:replies_24h;not null"`
	Views24h            int        `gorm:"column:views_24h;not null"`
	Refresh24hAt        *time.Time `gorm:"column:refresh_24h_at"`
	Refresh24hStatus    *string    `gorm:"column:refresh_24h_status"`
	DeltaLikes24h       int        `gorm:"column:delta_likes_24h;not null"`
	DeltaReposts24h     int        `gorm:"column:delta_reposts_24h;not null"`
	DeltaReplies24h     int        `gorm:"column:delta_replies_24h;not null"`
	DeltaViews24h       int        `gorm:"column:delta_views_24h;not null"`
	DiscoveredAt        time.Time  `gorm:"column:discovered_at;not null"`
	LastSeenAt          time.Time  `gorm:"column:last_seen_at;not null"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (PostModel) TableName() string { return "posts" }

// ReportModel is a delivery record for a significant post.
type ReportModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	StatusID    string    `gorm:"column:status_id;not null;uniqueIndex:idx_reports_status_id"`
	ReportedAt  time.Time `gorm:"column:reported_at;not null"`
	Channel     *string   `gorm:"column:channel"`
	Summary     *string   `gorm:"column:summary"`
	Destination *string   `gorm:"column:destination"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ReportModel) TableName() string { return "reports" }

// PipelineRunModel is one recorded collector execution.
type PipelineRunModel struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunAt            time.Time `gorm:"column:run_at;not null;uniqueIndex:idx_pipeline_runs_natural"`
	Mode             string    `gorm:"column:mode;not null;uniqueIndex:idx_pipeline_runs_natural"`
	FetchedCount     int       `gorm:"column:fetched_count;not null"`
	SignificantCount int       `gorm:"column:significant_count;not null"`
	ReportedCount    int       `gorm:"column:reported_count;not null"`
	Note             *string   `gorm:"column:note"`
	Source           string    `gorm:"column:source;not null;uniqueIndex:idx_pipeline_runs_natural"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (PipelineRunModel) TableName() string { return "pipeline_runs" }

// EmbeddingModel is a stored text-embedding vector for a post.
type EmbeddingModel struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement"`
	StatusID  string       `gorm:"column:status_id;not null;uniqueIndex:idx_embeddings_status_id"`
	Backend   string       `gorm:"column:backend;not null"`
	Model     string       `gorm:"column:model;not null"`
	Dims      int          `gorm:"column:dims;not null"`
	Vector    Float64Slice `gorm:"column:vector;type:text"`
	TextHash  string       `gorm:"column:text_hash;not null"`
	CreatedAt time.Time    `gorm:"column:created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at"`
}

func (EmbeddingModel) TableName() string { return "embeddings" }

// MetricsSnapshotModel is one point-in-time engagement observation for a
// post. Rows are append-only; the natural key keeps re-derivation
// idempotent.
type MetricsSnapshotModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	StatusID     string    `gorm:"column:status_id;not null;uniqueIndex:idx_post_metrics_snapshots_natural"`
	SnapshotType string    `gorm:"column:snapshot_type;not null;uniqueIndex:idx_post_metrics_snapshots_natural"`
	SnapshotAt   time.Time `gorm:"column:snapshot_at;not null;uniqueIndex:idx_post_metrics_snapshots_natural"`
	Likes        int       `gorm:"column:likes;not null"`
	Reposts      int       `gorm:"column:reposts;not null"`
	Replies      int       `gorm:"column:replies;not null"`
	Views        int       `gorm:"column:views;not null"`
	Source       string    `gorm:"column:source;not null"`
}

func (MetricsSnapshotModel) TableName() string { return "post_metrics_snapshots" }
