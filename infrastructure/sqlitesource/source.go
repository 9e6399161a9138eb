// Package sqlitesource provides read and purge access to the legacy
// collector SQLite database.
package sqlitesource

import (
	"context"
	"fmt"
	"os"

	"github.com/paulbrigner/xmonitor/internal/database"
)

// Legacy table names in export order.
const (
	TableTweets        = "tweets"
	TableReports       = "reports"
	TableWatchAccounts = "watch_accounts"
	TableRuns          = "runs"
	TableEmbeddings    = "tweet_embeddings"
)

// Tables lists the exportable legacy tables in a stable order.
var Tables = []string{
	TableTweets,
	TableReports,
	TableWatchAccounts,
	TableRuns,
	TableEmbeddings,
}

var knownTables = map[string]bool{
	TableTweets:        true,
	TableReports:       true,
	TableWatchAccounts: true,
	TableRuns:          true,
	TableEmbeddings:    true,
}

// Source is a handle to the legacy collector SQLite database.
type Source struct {
	db   database.Database
	path string
}

// Path returns the database file path, when opened from one.
func (s *Source) Path() string { return s.path }

// Open opens the legacy database at path. The file must already exist;
// opening must never create an empty database by accident.
func Open(ctx context.Context, path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite source does not exist: %s", path)
	}
	db, err := database.NewDatabase(ctx, "sqlite:///"+path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite source: %w", err)
	}
	return &Source{db: db, path: path}, nil
}

// NewSource wraps an already-open database. Used by tests.
func NewSource(db database.Database) *Source {
	return &Source{db: db}
}

// Count returns the row count of a legacy table.
func (s *Source) Count(ctx context.Context, table string) (int64, error) {
	if !knownTables[table] {
		return 0, fmt.Errorf("unknown legacy table: %s", table)
	}
	var count int64
	if err := s.db.Session(ctx).Table(table).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// Rows returns every row of a legacy table as a column-keyed map, in
// rowid order.
func (s *Source) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	if !knownTables[table] {
		return nil, fmt.Errorf("unknown legacy table: %s", table)
	}
	var rows []map[string]any
	if err := s.db.Session(ctx).Table(table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return rows, nil
}

// StatusIDs returns all non-null tweet status IDs.
func (s *Source) StatusIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.Session(ctx).
		Table(TableTweets).
		Where("status_id IS NOT NULL").
		Pluck("status_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("read tweet status ids: %w", err)
	}
	return ids, nil
}

// Tweet returns the legacy tweet row with the given status ID, or nil
// when no such row exists.
func (s *Source) Tweet(ctx context.Context, statusID string) (map[string]any, error) {
	var rows []map[string]any
	err := s.db.Session(ctx).
		Table(TableTweets).
		Where("status_id = ?", statusID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read tweet %q: %w", statusID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Close closes the underlying database.
func (s *Source) Close() error {
	return s.db.Close()
}
