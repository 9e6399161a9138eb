package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

var postUpdateColumns = []string{
	"url", "author_handle", "author_display", "body_text", "posted_relative",
	"source_query", "watch_tier", "is_significant", "significance_reason",
	"significance_version", "likes", "reposts", "replies", "views",
	"initial_likes", "initial_reposts", "initial_replies", "initial_views",
	"likes_24h", "reposts_24h", "replies_24h", "views_24h",
	"refresh_24h_at", "refresh_24h_status",
	"delta_likes_24h", "delta_reposts_24h", "delta_replies_24h", "delta_views_24h",
	"discovered_at", "last_seen_at", "updated_at",
}

// PostStore persists monitored posts keyed by status ID.
type PostStore struct {
	database.Repository[monitor.Post, PostModel]
}

// NewPostStore creates a new PostStore.
func NewPostStore(db database.Database) *PostStore {
	return &PostStore{
		Repository: database.NewRepository[monitor.Post, PostModel](
			db, PostMapper{}, "post"),
	}
}

// Upsert inserts the post or overwrites all mutable fields of the
// existing row with the same status ID (last write wins). Returns true
// when a new row was inserted.
func (s *PostStore) Upsert(ctx context.Context, post monitor.Post) (bool, error) {
	exists, err := s.Exists(ctx, monitor.WithStatusID(post.StatusID))
	if err != nil {
		return false, err
	}

	model := PostMapper{}.ToModel(post)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "status_id"}},
		DoUpdates: clause.AssignmentColumns(postUpdateColumns),
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("upsert post %q: %w", post.StatusID, result.Error)
	}
	return !exists, nil
}
