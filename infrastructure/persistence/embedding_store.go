package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

var embeddingUpdateColumns = []string{
	"backend", "model", "dims", "vector", "text_hash", "created_at", "updated_at",
}

// EmbeddingStore persists post embedding vectors keyed by status ID.
type EmbeddingStore struct {
	database.Repository[monitor.Embedding, EmbeddingModel]
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db database.Database) *EmbeddingStore {
	return &EmbeddingStore{
		Repository: database.NewRepository[monitor.Embedding, EmbeddingModel](
			db, EmbeddingMapper{}, "embedding"),
	}
}

// Upsert inserts the embedding or overwrites the non-key fields of the
// existing row with the same status ID. Returns true when a new row was
// inserted.
func (s *EmbeddingStore) Upsert(ctx context.Context, embedding monitor.Embedding) (bool, error) {
	exists, err := s.Exists(ctx, monitor.WithStatusID(embedding.StatusID))
	if err != nil {
		return false, err
	}

	model := EmbeddingMapper{}.ToModel(embedding)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "status_id"}},
		DoUpdates: clause.AssignmentColumns(embeddingUpdateColumns),
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("upsert embedding %q: %w", embedding.StatusID, result.Error)
	}
	return !exists, nil
}
