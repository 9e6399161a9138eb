package sqlitesource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulbrigner/xmonitor/internal/testdb"
)

var legacySchema = []string{
	`CREATE TABLE tweets (
		status_id TEXT PRIMARY KEY,
		url TEXT,
		author_handle TEXT,
		body_text TEXT,
		is_significant INTEGER,
		discovered_at TEXT
	)`,
	`CREATE TABLE reports (status_id TEXT, reported_at TEXT)`,
	`CREATE TABLE watch_accounts (handle TEXT, tier TEXT, added_at TEXT)`,
	`CREATE TABLE runs (run_at TEXT, mode TEXT, source TEXT)`,
	`CREATE TABLE tweet_embeddings (status_id TEXT, backend TEXT, model TEXT, vector_json TEXT, text_hash TEXT, created_at TEXT)`,
}

func seededSource(t *testing.T) *Source {
	t.Helper()
	db := testdb.WithSchema(t, legacySchema...)
	ctx := context.Background()
	statements := []string{
		`INSERT INTO tweets VALUES ('100', 'https://x.com/alice/status/100', 'Alice', 'hello', 1, '2025-02-01T08:00:00Z')`,
		`INSERT INTO tweets VALUES ('200', 'https://x.com/bob/status/200', 'bob', 'later', 0, '2025-02-01T09:00:00Z')`,
		`INSERT INTO reports VALUES ('100', '2025-02-01T10:00:00Z')`,
		`INSERT INTO watch_accounts VALUES ('alice', 'teammate', '2025-01-01T00:00:00Z')`,
		`INSERT INTO tweet_embeddings VALUES ('100', 'openai', 'small', '[0.1]', 'h1', '2025-02-01T08:00:00Z')`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Session(ctx).Exec(stmt).Error)
	}
	return NewSource(db)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), "/nonexistent/x_monitor.db")
	assert.ErrorContains(t, err, "does not exist")
}

func TestSourceCount(t *testing.T) {
	ctx := context.Background()
	source := seededSource(t)

	count, err := source.Count(ctx, TableTweets)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = source.Count(ctx, TableRuns)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = source.Count(ctx, "sqlite_master")
	assert.ErrorContains(t, err, "unknown legacy table")
}

func TestSourceRows(t *testing.T) {
	ctx := context.Background()
	source := seededSource(t)

	rows, err := source.Rows(ctx, TableTweets)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "https://x.com/alice/status/100", rows[0]["url"])
}

func TestSourceStatusIDs(t *testing.T) {
	ctx := context.Background()
	source := seededSource(t)

	ids, err := source.StatusIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100", "200"}, ids)
}

func TestSourceTweet(t *testing.T) {
	ctx := context.Background()
	source := seededSource(t)

	row, err := source.Tweet(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Alice", row["author_handle"])

	row, err = source.Tweet(ctx, "999")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestPurgeHandles(t *testing.T) {
	ctx := context.Background()
	source := seededSource(t)

	result, err := source.PurgeHandles(ctx, []string{"alice"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, result.ByHandleBeforeTweet["alice"])
	assert.EqualValues(t, 1, result.Before[TableTweets])
	assert.EqualValues(t, 1, result.Before[TableReports])
	assert.EqualValues(t, 1, result.Before[TableEmbeddings])
	assert.EqualValues(t, 1, result.Before[TableWatchAccounts])

	for table, count := range result.After {
		assert.Zerof(t, count, "table %s still has matching rows", table)
	}

	// Unrelated rows survive.
	remaining, err := source.Count(ctx, TableTweets)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remaining)
}

func TestPurgeHandles_NoHandles(t *testing.T) {
	source := seededSource(t)
	_, err := source.PurgeHandles(context.Background(), nil)
	assert.Error(t, err)
}
