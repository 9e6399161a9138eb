package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

var reportUpdateColumns = []string{
	"reported_at", "channel", "summary", "destination", "updated_at",
}

// ReportStore persists delivery records keyed by status ID.
type ReportStore struct {
	database.Repository[monitor.Report, ReportModel]
}

// NewReportStore creates a new ReportStore.
func NewReportStore(db database.Database) *ReportStore {
	return &ReportStore{
		Repository: database.NewRepository[monitor.Report, ReportModel](
			db, ReportMapper{}, "report"),
	}
}

// Upsert inserts the report or overwrites the non-key fields of the
// existing row with the same status ID. Returns true when a new row was
// inserted.
func (s *ReportStore) Upsert(ctx context.Context, report monitor.Report) (bool, error) {
	exists, err := s.Exists(ctx, monitor.WithStatusID(report.StatusID))
	if err != nil {
		return false, err
	}

	model := ReportMapper{}.ToModel(report)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "status_id"}},
		DoUpdates: clause.AssignmentColumns(reportUpdateColumns),
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("upsert report %q: %w", report.StatusID, result.Error)
	}
	return !exists, nil
}
