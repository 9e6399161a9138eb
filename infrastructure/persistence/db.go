package persistence

import (
	"context"
	"fmt"

	"github.com/paulbrigner/xmonitor/internal/database"
)

// AutoMigrate creates or updates the destination schema.
func AutoMigrate(ctx context.Context, db database.Database) error {
	if err := db.Session(ctx).AutoMigrate(
		&WatchAccountModel{},
		&PostModel{},
		&ReportModel{},
		&PipelineRunModel{},
		&EmbeddingModel{},
		&MetricsSnapshotModel{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
