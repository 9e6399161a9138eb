package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

var pipelineRunUpdateColumns = []string{
	"fetched_count", "significant_count", "reported_count", "note", "updated_at",
}

// PipelineRunStore persists collector executions keyed by
// (run_at, mode, source).
type PipelineRunStore struct {
	database.Repository[monitor.PipelineRun, PipelineRunModel]
}

// NewPipelineRunStore creates a new PipelineRunStore.
func NewPipelineRunStore(db database.Database) *PipelineRunStore {
	return &PipelineRunStore{
		Repository: database.NewRepository[monitor.PipelineRun, PipelineRunModel](
			db, PipelineRunMapper{}, "pipeline run"),
	}
}

// Upsert inserts the run or overwrites the counter fields of the existing
// row with the same (run_at, mode, source) key. Returns true when a new
// row was inserted.
func (s *PipelineRunStore) Upsert(ctx context.Context, run monitor.PipelineRun) (bool, error) {
	exists, err := s.Exists(ctx, monitor.WithRunKey(run.RunAt, run.Mode, run.Source))
	if err != nil {
		return false, err
	}

	model := PipelineRunMapper{}.ToModel(run)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "run_at"}, {Name: "mode"}, {Name: "source"},
		},
		DoUpdates: clause.AssignmentColumns(pipelineRunUpdateColumns),
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("upsert pipeline run %s/%s: %w", run.Mode, run.Source, result.Error)
	}
	return !exists, nil
}
