package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/internal/database"
)

var watchAccountUpdateColumns = []string{
	"tier", "note", "added_at", "updated_at",
}

// WatchAccountStore persists watch-list accounts keyed by handle.
type WatchAccountStore struct {
	database.Repository[monitor.WatchAccount, WatchAccountModel]
}

// NewWatchAccountStore creates a new WatchAccountStore.
func NewWatchAccountStore(db database.Database) *WatchAccountStore {
	return &WatchAccountStore{
		Repository: database.NewRepository[monitor.WatchAccount, WatchAccountModel](
			db, WatchAccountMapper{}, "watch account"),
	}
}

// Upsert inserts the account or overwrites the non-key fields of the
// existing row with the same handle. Returns true when a new row was
// inserted.
func (s *WatchAccountStore) Upsert(ctx context.Context, account monitor.WatchAccount) (bool, error) {
	exists, err := s.Exists(ctx, monitor.WithHandle(account.Handle))
	if err != nil {
		return false, err
	}

	model := WatchAccountMapper{}.ToModel(account)
	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns(watchAccountUpdateColumns),
	}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("upsert watch account %q: %w", account.Handle, result.Error)
	}
	return !exists, nil
}
