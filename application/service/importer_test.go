package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/infrastructure/persistence"
	"github.com/paulbrigner/xmonitor/internal/config"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/log"
	"github.com/paulbrigner/xmonitor/internal/testdb"
)

func quietLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "ERROR")
}

func writeLines(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func seedExportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeLines(t, dir, FileWatchAccounts,
		`{"handle":"@Alice","tier":"Teammate","added_at":"2025-01-01T00:00:00Z","note":"core"}`,
		`{"author_handle":"bob","watch_tier":"vip","created_at":"2025-01-02T00:00:00Z"}`,
		`{"handle":"carol","tier":"ecosystem"}`,
	)
	writeLines(t, dir, FilePosts,
		`{"id":"100","tweet_url":"https://x.com/alice/status/100","username":"@Alice","text":"hello","significant":"yes","likes":5,"retweets":"2","captured_at":"2025-02-01T08:00:00Z","updated_at":"2025-02-01 10:00:00"}`,
		`{"status_id":"200","url":"https://x.com/bob/status/200","author_handle":"bob","discovered_at":"2025-02-01T08:00:00Z","last_seen_at":"2025-02-01T09:00:00Z","refresh_24h_at":"2025-02-02T08:00:00Z","likes_24h":7}`,
		`{"status_id":"300","author_handle":"carol"}`,
		`{broken`,
	)
	writeLines(t, dir, FileReports,
		`{"status_id":"100","reported_at":"2025-02-01T10:00:00Z","channel":"email"}`,
		`{"status_id":"","created_at":"2025-02-01T10:00:00Z"}`,
	)
	writeLines(t, dir, FilePipelineRuns,
		`{"run_at":"2025-02-01T06:00:00Z","mode":"refresh-24h","fetched_count":"3"}`,
		`{"run_at":"2025-02-01T07:00:00Z","mode":"nightly"}`,
	)
	writeLines(t, dir, FileEmbeddings,
		`{"status_id":"100","backend":"openai","model":"small","text_hash":"h1","vector_json":"[0.1,0.2]","created_at":"2025-02-01T08:00:00Z"}`,
		`{"status_id":"100","backend":"openai","model":"small"}`,
	)

	return dir
}

func runImport(t *testing.T, db database.Database, dir string, skipSnapshots bool) monitor.Summary {
	t.Helper()
	importer := NewImporter(db, quietLogger())
	summary, err := importer.Run(context.Background(), ImportRequest{
		InputDir:      dir,
		RejectLogPath: filepath.Join(t.TempDir(), "rejects.ndjson"),
		Source:        "sqlite_migration",
		SkipSnapshots: skipSnapshots,
	})
	require.NoError(t, err)
	return summary
}

func TestImporter_Run(t *testing.T) {
	db := testdb.New(t)
	dir := seedExportDir(t)

	summary := runImport(t, db, dir, false)

	assert.Equal(t, monitor.Counters{Received: 3, Inserted: 1, Skipped: 1, Errors: 1}, summary.WatchAccounts)
	assert.Equal(t, monitor.Counters{Received: 4, Inserted: 2, Skipped: 1, Errors: 1}, summary.Posts)
	assert.Equal(t, monitor.Counters{Received: 2, Inserted: 1, Skipped: 1}, summary.Reports)
	assert.Equal(t, monitor.Counters{Received: 2, Inserted: 1, Skipped: 1}, summary.PipelineRuns)
	assert.Equal(t, monitor.Counters{Received: 2, Inserted: 1, Skipped: 1}, summary.Embeddings)

	for _, c := range []monitor.Counters{
		summary.WatchAccounts, summary.Posts, summary.Reports, summary.PipelineRuns, summary.Embeddings,
	} {
		assert.True(t, c.Consistent())
	}

	assert.EqualValues(t, 2, summary.DerivedSnapshots.InitialCapture)
	assert.EqualValues(t, 2, summary.DerivedSnapshots.LatestObserved)
	assert.EqualValues(t, 1, summary.DerivedSnapshots.Refresh24h)
}

func TestImporter_NormalizesFields(t *testing.T) {
	db := testdb.New(t)
	dir := seedExportDir(t)
	runImport(t, db, dir, false)

	ctx := context.Background()

	post, err := persistence.NewPostStore(db).FindOne(ctx, monitor.WithStatusID("100"))
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorHandle, "handle is @-stripped and lowered")
	assert.Equal(t, "https://x.com/alice/status/100", post.URL)
	assert.True(t, post.IsSignificant, `"yes" parses as true`)
	assert.Equal(t, "v1", post.SignificanceVersion)
	assert.Equal(t, 2, post.Current.Reposts, "retweets alias feeds reposts")
	require.NotNil(t, post.BodyText)
	assert.Equal(t, "hello", *post.BodyText)

	run, err := persistence.NewPipelineRunStore(db).FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, monitor.RunModeRefresh, run.Mode, "refresh-24h alias canonicalized")
	assert.Equal(t, 3, run.FetchedCount)
	assert.Equal(t, "local-dispatcher", run.Source)

	embedding, err := persistence.NewEmbeddingStore(db).FindOne(ctx, monitor.WithStatusID("100"))
	require.NoError(t, err)
	assert.Equal(t, 2, embedding.Dims, "dims inferred from the vector")
	assert.Equal(t, []float64{0.1, 0.2}, embedding.Vector)

	account, err := persistence.NewWatchAccountStore(db).FindOne(ctx, monitor.WithHandle("alice"))
	require.NoError(t, err)
	assert.Equal(t, monitor.TierTeammate, account.Tier)
}

func TestImporter_Rerun_IsIdempotent(t *testing.T) {
	db := testdb.New(t)
	dir := seedExportDir(t)

	runImport(t, db, dir, false)
	summary := runImport(t, db, dir, false)

	assert.Equal(t, monitor.Counters{Received: 3, Updated: 1, Skipped: 1, Errors: 1}, summary.WatchAccounts)
	assert.Equal(t, monitor.Counters{Received: 4, Updated: 2, Skipped: 1, Errors: 1}, summary.Posts)

	assert.EqualValues(t, 0, summary.DerivedSnapshots.InitialCapture, "snapshots are rerun-safe")

	count, err := persistence.NewPostStore(db).Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestImporter_RejectLog(t *testing.T) {
	db := testdb.New(t)
	dir := seedExportDir(t)
	rejectPath := filepath.Join(t.TempDir(), "rejects.ndjson")

	_, err := NewImporter(db, quietLogger()).Run(context.Background(), ImportRequest{
		InputDir:      dir,
		RejectLogPath: rejectPath,
		Source:        "sqlite_migration",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(rejectPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 7)
	text := string(data)
	assert.Contains(t, text, "missing handle or tier")
	assert.Contains(t, text, "missing status_id/url/author_handle")
	assert.Contains(t, text, "missing required timestamp")
	assert.Contains(t, text, "invalid mode")
	assert.Contains(t, text, "missing required embedding fields")
	assert.Contains(t, text, "decode line 4")
}

func TestImporter_MissingFilesYieldZeroCounters(t *testing.T) {
	db := testdb.New(t)
	dir := t.TempDir()
	writeLines(t, dir, FileReports,
		`{"status_id":"100","reported_at":"2025-02-01T10:00:00Z"}`,
	)

	summary := runImport(t, db, dir, false)

	assert.Equal(t, monitor.Counters{}, summary.WatchAccounts)
	assert.Equal(t, monitor.Counters{}, summary.Posts)
	assert.Equal(t, monitor.Counters{Received: 1, Inserted: 1}, summary.Reports)
}

func TestImporter_SkipSnapshots(t *testing.T) {
	db := testdb.New(t)
	dir := seedExportDir(t)

	summary := runImport(t, db, dir, true)

	assert.Equal(t, monitor.SnapshotCounts{}, summary.DerivedSnapshots)

	count, err := persistence.NewMetricsSnapshotStore(db).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImporter_MissingInputDir(t *testing.T) {
	db := testdb.New(t)
	_, err := NewImporter(db, quietLogger()).Run(context.Background(), ImportRequest{
		InputDir:      filepath.Join(t.TempDir(), "nope"),
		RejectLogPath: filepath.Join(t.TempDir(), "rejects.ndjson"),
	})
	assert.ErrorContains(t, err, "input directory not found")
}
