package sqlitesource

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/paulbrigner/xmonitor/internal/database"
)

// PurgeResult reports per-table row counts matching the purged handles
// before and after the delete.
type PurgeResult struct {
	DBPath              string           `json:"db_path,omitempty"`
	ByHandleBeforeTweet map[string]int64 `json:"by_handle_before_tweets"`
	Before              map[string]int64 `json:"before"`
	After               map[string]int64 `json:"after"`
}

// PurgeHandles deletes all rows belonging to the given lowered author
// handles: tweets, their dependent reports, embeddings, and FTS rows,
// plus matching watch accounts. The deletes run in one transaction.
func (s *Source) PurgeHandles(ctx context.Context, handles []string) (PurgeResult, error) {
	result := PurgeResult{DBPath: s.path}
	if len(handles) == 0 {
		return result, fmt.Errorf("no handles to purge")
	}

	hasFTS, err := s.hasTable(ctx, "tweets_fts")
	if err != nil {
		return result, err
	}

	result.ByHandleBeforeTweet, err = s.tweetCountsByHandle(ctx, handles)
	if err != nil {
		return result, err
	}
	result.Before, err = s.matchCounts(ctx, handles, hasFTS)
	if err != nil {
		return result, err
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if hasFTS {
			res := tx.Exec(
				"DELETE FROM tweets_fts WHERE status_id IN (SELECT status_id FROM tweets WHERE lower(author_handle) IN ?) OR lower(author_handle) IN ?",
				handles, handles)
			if res.Error != nil {
				return fmt.Errorf("purge tweets_fts: %w", res.Error)
			}
		}
		statements := []string{
			"DELETE FROM reports WHERE status_id IN (SELECT status_id FROM tweets WHERE lower(author_handle) IN ?)",
			"DELETE FROM tweet_embeddings WHERE status_id IN (SELECT status_id FROM tweets WHERE lower(author_handle) IN ?)",
			"DELETE FROM tweets WHERE lower(author_handle) IN ?",
			"DELETE FROM watch_accounts WHERE lower(handle) IN ?",
		}
		for _, stmt := range statements {
			if res := tx.Exec(stmt, handles); res.Error != nil {
				return fmt.Errorf("purge: %w", res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.After, err = s.matchCounts(ctx, handles, hasFTS)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *Source) hasTable(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.Session(ctx).
		Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return count > 0, nil
}

func (s *Source) tweetCountsByHandle(ctx context.Context, handles []string) (map[string]int64, error) {
	var rows []struct {
		Handle string
		N      int64
	}
	err := s.db.Session(ctx).
		Raw("SELECT lower(author_handle) AS handle, COUNT(*) AS n FROM tweets WHERE lower(author_handle) IN ? GROUP BY lower(author_handle)", handles).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tweets by handle: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Handle] = row.N
	}
	return counts, nil
}

func (s *Source) matchCounts(ctx context.Context, handles []string, hasFTS bool) (map[string]int64, error) {
	queries := map[string]string{
		TableTweets:        "SELECT COUNT(*) FROM tweets WHERE lower(author_handle) IN ?",
		TableReports:       "SELECT COUNT(*) FROM reports WHERE status_id IN (SELECT status_id FROM tweets WHERE lower(author_handle) IN ?)",
		TableEmbeddings:    "SELECT COUNT(*) FROM tweet_embeddings WHERE status_id IN (SELECT status_id FROM tweets WHERE lower(author_handle) IN ?)",
		TableWatchAccounts: "SELECT COUNT(*) FROM watch_accounts WHERE lower(handle) IN ?",
	}
	if hasFTS {
		queries["tweets_fts"] = "SELECT COUNT(*) FROM tweets_fts WHERE lower(author_handle) IN ?"
	}

	counts := make(map[string]int64, len(queries))
	for table, sql := range queries {
		var count int64
		if err := s.db.Session(ctx).Raw(sql, handles).Scan(&count).Error; err != nil {
			return nil, fmt.Errorf("count %s matches: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}
