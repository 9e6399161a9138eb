package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulbrigner/xmonitor/infrastructure/sqlitesource"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/testdb"
)

var legacyDDL = []string{
	`CREATE TABLE tweets (
		status_id TEXT PRIMARY KEY,
		url TEXT,
		author_handle TEXT,
		body_text TEXT,
		is_significant INTEGER,
		likes INTEGER,
		retweets INTEGER,
		discovered_at TEXT,
		last_seen_at TEXT
	)`,
	`CREATE TABLE reports (
		status_id TEXT,
		reported_at TEXT,
		channel TEXT
	)`,
	`CREATE TABLE watch_accounts (
		handle TEXT,
		tier TEXT,
		added_at TEXT
	)`,
	`CREATE TABLE runs (
		run_at TEXT,
		mode TEXT,
		fetched_count INTEGER
	)`,
	`CREATE TABLE tweet_embeddings (
		status_id TEXT,
		backend TEXT,
		model TEXT,
		dims INTEGER,
		vector_json TEXT,
		text_hash TEXT,
		created_at TEXT,
		updated_at TEXT
	)`,
}

func seedLegacyDB(t *testing.T) database.Database {
	t.Helper()
	db := testdb.WithSchema(t, legacyDDL...)
	session := db.Session(context.Background())
	for _, stmt := range []string{
		`INSERT INTO tweets VALUES
			('100', 'https://x.com/alice/status/100', 'alice', 'hello', 1, 5, 2, '2025-02-01T08:00:00Z', '2025-02-01T10:00:00Z'),
			('200', 'https://x.com/bob/status/200', 'bob', 'world', 0, 1, 0, '2025-02-01T09:00:00Z', '2025-02-01T11:00:00Z')`,
		`INSERT INTO reports VALUES ('100', '2025-02-01T10:30:00Z', 'email')`,
		`INSERT INTO watch_accounts VALUES ('alice', 'teammate', '2025-01-01T00:00:00Z')`,
		`INSERT INTO runs VALUES ('2025-02-01T06:00:00Z', 'priority', 3)`,
	} {
		require.NoError(t, session.Exec(stmt).Error)
	}
	return db
}

func TestExporter_Run(t *testing.T) {
	db := seedLegacyDB(t)
	source := sqlitesource.NewSource(db)
	outDir := filepath.Join(t.TempDir(), "export")

	results, err := NewExporter(source, quietLogger()).Run(context.Background(), outDir)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"tweets":           2,
		"reports":          1,
		"watch_accounts":   1,
		"runs":             1,
		"tweet_embeddings": 0,
	}, results)

	for _, table := range sqlitesource.Tables {
		assert.FileExists(t, filepath.Join(outDir, table+".jsonl"))
	}

	data, err := os.ReadFile(filepath.Join(outDir, FilePosts))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.Equal(t, "100", row["status_id"])
	assert.Equal(t, "alice", row["author_handle"])
	assert.EqualValues(t, 5, row["likes"])

	empty, err := os.ReadFile(filepath.Join(outDir, FileEmbeddings))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(empty)))
}

func TestExporter_RoundTripsThroughImporter(t *testing.T) {
	source := sqlitesource.NewSource(seedLegacyDB(t))
	outDir := filepath.Join(t.TempDir(), "export")

	_, err := NewExporter(source, quietLogger()).Run(context.Background(), outDir)
	require.NoError(t, err)

	dest := testdb.New(t)
	summary := runImport(t, dest, outDir, false)

	assert.Equal(t, 2, summary.Posts.Inserted)
	assert.Equal(t, 1, summary.Reports.Inserted)
	assert.Equal(t, 1, summary.WatchAccounts.Inserted)
	assert.Equal(t, 1, summary.PipelineRuns.Inserted)
	assert.Zero(t, summary.Posts.Errors)
}
