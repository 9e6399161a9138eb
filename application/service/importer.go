package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/infrastructure/persistence"
	"github.com/paulbrigner/xmonitor/internal/coerce"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/jsonl"
	"github.com/paulbrigner/xmonitor/internal/log"
)

// Export file names, one per legacy table, as written by the exporter.
const (
	FileWatchAccounts = "watch_accounts.jsonl"
	FilePosts         = "tweets.jsonl"
	FileReports       = "reports.jsonl"
	FilePipelineRuns  = "runs.jsonl"
	FileEmbeddings    = "tweet_embeddings.jsonl"
)

// defaultPipelineSource labels runs that predate the source column.
const defaultPipelineSource = "local-dispatcher"

// ImportRequest configures one import run.
type ImportRequest struct {
	InputDir      string
	RejectLogPath string
	Source        string
	SkipSnapshots bool
}

// rowOutcome is the result of handling one well-formed row.
type rowOutcome int

const (
	rowInserted rowOutcome = iota
	rowUpdated
	rowSkipped
)

// errSkip carries the reject-log reason for a skipped row.
type errSkip struct{ reason string }

func (e errSkip) Error() string { return e.reason }

// skip marks a row as skipped with the given reason.
func skip(reason string) (rowOutcome, error) {
	return rowSkipped, errSkip{reason: reason}
}

// Importer loads JSONL exports into the destination database with
// idempotent per-row upserts and derives metrics snapshots afterwards.
type Importer struct {
	accounts   *persistence.WatchAccountStore
	posts      *persistence.PostStore
	reports    *persistence.ReportStore
	runs       *persistence.PipelineRunStore
	embeddings *persistence.EmbeddingStore
	snapshots  *persistence.MetricsSnapshotStore
	logger     *log.Logger
}

// NewImporter creates an importer bound to the destination database.
func NewImporter(db database.Database, logger *log.Logger) *Importer {
	return &Importer{
		accounts:   persistence.NewWatchAccountStore(db),
		posts:      persistence.NewPostStore(db),
		reports:    persistence.NewReportStore(db),
		runs:       persistence.NewPipelineRunStore(db),
		embeddings: persistence.NewEmbeddingStore(db),
		snapshots:  persistence.NewMetricsSnapshotStore(db),
		logger:     logger,
	}
}

// Run imports every table file found in the input directory and returns
// the per-table summary. A missing table file contributes zero counters.
// Malformed or incomplete rows are written to the reject log and counted;
// they never abort the run.
func (i *Importer) Run(ctx context.Context, req ImportRequest) (monitor.Summary, error) {
	var summary monitor.Summary

	if _, err := os.Stat(req.InputDir); err != nil {
		return summary, fmt.Errorf("input directory not found: %s", req.InputDir)
	}

	rejects, err := jsonl.OpenRejectLog(req.RejectLogPath)
	if err != nil {
		return summary, err
	}
	defer rejects.Close()

	tables := []struct {
		name   string
		file   string
		dest   *monitor.Counters
		handle func(ctx context.Context, row map[string]any) (rowOutcome, error)
	}{
		{"watch_accounts", FileWatchAccounts, &summary.WatchAccounts, i.importWatchAccount},
		{"posts", FilePosts, &summary.Posts, i.importPost},
		{"reports", FileReports, &summary.Reports, i.importReport},
		{"pipeline_runs", FilePipelineRuns, &summary.PipelineRuns, i.importPipelineRun},
		{"embeddings", FileEmbeddings, &summary.Embeddings, i.importEmbedding},
	}

	for _, table := range tables {
		path := filepath.Join(req.InputDir, table.file)
		if _, err := os.Stat(path); err != nil {
			i.logger.Info("table file missing, nothing to import", "table", table.name, "path", path)
			continue
		}
		counters, err := i.importFile(ctx, table.name, path, rejects, table.handle)
		if err != nil {
			return summary, err
		}
		*table.dest = counters
		i.logger.Info("table imported",
			"table", table.name,
			"received", counters.Received,
			"inserted", counters.Inserted,
			"updated", counters.Updated,
			"skipped", counters.Skipped,
			"errors", counters.Errors)
	}

	if req.SkipSnapshots {
		i.logger.Info("derived snapshots skipped")
	} else {
		summary.DerivedSnapshots, err = i.snapshots.DeriveFromPosts(ctx, req.Source)
		if err != nil {
			return summary, err
		}
		i.logger.Info("derived snapshots",
			"initial_capture", summary.DerivedSnapshots.InitialCapture,
			"latest_observed", summary.DerivedSnapshots.LatestObserved,
			"refresh_24h", summary.DerivedSnapshots.Refresh24h)
	}

	return summary, nil
}

// importFile runs the per-row loop for one table. The loop owns the
// counters; reject-log writes never touch them, so for every table
// received = inserted + updated + skipped + errors.
func (i *Importer) importFile(
	ctx context.Context,
	table, path string,
	rejects *jsonl.RejectLog,
	handle func(ctx context.Context, row map[string]any) (rowOutcome, error),
) (monitor.Counters, error) {
	var counters monitor.Counters

	reader, err := jsonl.Open(path)
	if err != nil {
		return counters, err
	}
	defer reader.Close()

	for {
		line, ok := reader.Next()
		if !ok {
			break
		}
		counters.Received++

		if line.Err != nil {
			counters.Errors++
			if err := rejects.Log(table, line.Index, line.Err.Error(), line.Raw); err != nil {
				return counters, err
			}
			continue
		}

		outcome, err := handle(ctx, line.Row)
		switch {
		case err == nil && outcome == rowInserted:
			counters.Inserted++
		case err == nil:
			counters.Updated++
		default:
			var skipErr errSkip
			if errors.As(err, &skipErr) {
				counters.Skipped++
			} else {
				counters.Errors++
			}
			if logErr := rejects.Log(table, line.Index, err.Error(), line.Row); logErr != nil {
				return counters, logErr
			}
		}
	}
	if err := reader.Err(); err != nil {
		return counters, fmt.Errorf("read %s: %w", path, err)
	}

	return counters, nil
}

func (i *Importer) importWatchAccount(ctx context.Context, row map[string]any) (rowOutcome, error) {
	handle, hasHandle := coerce.String(coerce.FirstOf(row, "handle", "author_handle"))
	if hasHandle {
		handle, hasHandle = monitor.NormalizeHandle(handle)
	}
	rawTier, _ := coerce.String(coerce.FirstOf(row, "tier", "watch_tier"))
	tier, hasTier := monitor.ParseTier(rawTier)

	addedAt, err := coerce.Timestamp(coerce.FirstOf(row, "added_at", "created_at", "updated_at"), true)
	if err != nil {
		return 0, err
	}

	if !hasHandle || !hasTier {
		return skip("missing handle or tier")
	}

	inserted, err := i.accounts.Upsert(ctx, monitor.WatchAccount{
		Handle:  handle,
		Tier:    tier,
		Note:    coerce.StringPtr(coerce.FirstOf(row, "note")),
		AddedAt: *addedAt,
	})
	if err != nil {
		return 0, err
	}
	if inserted {
		return rowInserted, nil
	}
	return rowUpdated, nil
}

func (i *Importer) importPost(ctx context.Context, row map[string]any) (rowOutcome, error) {
	statusID, _ := coerce.String(coerce.FirstOf(row, "status_id", "id"))
	url, _ := coerce.String(coerce.FirstOf(row, "url", "status_url", "tweet_url"))
	authorHandle, hasAuthor := coerce.String(coerce.FirstOf(row, "author_handle", "handle", "author", "username"))
	if hasAuthor {
		authorHandle, hasAuthor = monitor.NormalizeHandle(authorHandle)
	}
	if statusID == "" || url == "" || !hasAuthor {
		return skip("missing status_id/url/author_handle")
	}

	rawTier, _ := coerce.String(coerce.FirstOf(row, "watch_tier", "tier"))
	tier, _ := monitor.ParseTier(rawTier)

	refresh24hAt, err := coerce.Timestamp(coerce.FirstOf(row, "refresh_24h_at"), false)
	if err != nil {
		return 0, err
	}
	discoveredAt, err := coerce.Timestamp(coerce.FirstOf(row, "discovered_at", "captured_at", "created_at"), true)
	if err != nil {
		return 0, err
	}
	lastSeenAt, err := coerce.Timestamp(coerce.FirstOf(row, "last_seen_at", "updated_at", "seen_at"), true)
	if err != nil {
		return 0, err
	}

	version, ok := coerce.String(coerce.FirstOf(row, "significance_version"))
	if !ok {
		version = "v1"
	}

	inserted, err := i.posts.Upsert(ctx, monitor.Post{
		StatusID:            statusID,
		URL:                 url,
		AuthorHandle:        authorHandle,
		AuthorDisplay:       coerce.StringPtr(coerce.FirstOf(row, "author_display", "display_name", "author_name")),
		BodyText:            coerce.StringPtr(coerce.FirstOf(row, "body_text", "text", "tweet_text", "content")),
		PostedRelative:      coerce.StringPtr(coerce.FirstOf(row, "posted_relative")),
		SourceQuery:         coerce.StringPtr(coerce.FirstOf(row, "source_query", "query_type", "source")),
		WatchTier:           tier,
		IsSignificant:       coerce.Bool(coerce.FirstOf(row, "is_significant", "significant"), false),
		SignificanceReason:  coerce.StringPtr(coerce.FirstOf(row, "significance_reason", "reason")),
		SignificanceVersion: version,
		Current: monitor.EngagementCounts{
			Likes:   coerce.Int(coerce.FirstOf(row, "likes"), 0),
			Reposts: coerce.Int(coerce.FirstOf(row, "reposts", "retweets"), 0),
			Replies: coerce.Int(coerce.FirstOf(row, "replies"), 0),
			Views:   coerce.Int(coerce.FirstOf(row, "views"), 0),
		},
		Initial: monitor.EngagementCounts{
			Likes:   coerce.Int(coerce.FirstOf(row, "initial_likes"), 0),
			Reposts: coerce.Int(coerce.FirstOf(row, "initial_reposts", "initial_retweets"), 0),
			Replies: coerce.Int(coerce.FirstOf(row, "initial_replies"), 0),
			Views:   coerce.Int(coerce.FirstOf(row, "initial_views"), 0),
		},
		At24h: monitor.EngagementCounts{
			Likes:   coerce.Int(coerce.FirstOf(row, "likes_24h"), 0),
			Reposts: coerce.Int(coerce.FirstOf(row, "reposts_24h", "retweets_24h"), 0),
			Replies: coerce.Int(coerce.FirstOf(row, "replies_24h"), 0),
			Views:   coerce.Int(coerce.FirstOf(row, "views_24h"), 0),
		},
		Refresh24hAt:     refresh24hAt,
		Refresh24hStatus: coerce.StringPtr(coerce.FirstOf(row, "refresh_24h_status")),
		Refresh24hDelta: monitor.EngagementCounts{
			Likes:   coerce.Int(coerce.FirstOf(row, "refresh_24h_delta_likes"), 0),
			Reposts: coerce.Int(coerce.FirstOf(row, "refresh_24h_delta_reposts", "refresh_24h_delta_retweets"), 0),
			Replies: coerce.Int(coerce.FirstOf(row, "refresh_24h_delta_replies"), 0),
			Views:   coerce.Int(coerce.FirstOf(row, "refresh_24h_delta_views"), 0),
		},
		DiscoveredAt: *discoveredAt,
		LastSeenAt:   *lastSeenAt,
	})
	if err != nil {
		return 0, err
	}
	if inserted {
		return rowInserted, nil
	}
	return rowUpdated, nil
}

func (i *Importer) importReport(ctx context.Context, row map[string]any) (rowOutcome, error) {
	statusID, _ := coerce.String(coerce.FirstOf(row, "status_id"))
	reportedAt, err := coerce.Timestamp(coerce.FirstOf(row, "reported_at", "created_at"), true)
	if err != nil {
		return 0, err
	}
	if statusID == "" {
		return skip("missing status_id")
	}

	inserted, err := i.reports.Upsert(ctx, monitor.Report{
		StatusID:    statusID,
		ReportedAt:  *reportedAt,
		Channel:     coerce.StringPtr(coerce.FirstOf(row, "channel")),
		Summary:     coerce.StringPtr(coerce.FirstOf(row, "summary")),
		Destination: coerce.StringPtr(coerce.FirstOf(row, "destination")),
	})
	if err != nil {
		return 0, err
	}
	if inserted {
		return rowInserted, nil
	}
	return rowUpdated, nil
}

func (i *Importer) importPipelineRun(ctx context.Context, row map[string]any) (rowOutcome, error) {
	runAt, err := coerce.Timestamp(coerce.FirstOf(row, "run_at", "created_at", "timestamp"), true)
	if err != nil {
		return 0, err
	}

	rawMode, _ := coerce.String(coerce.FirstOf(row, "mode"))
	mode, hasMode := monitor.ParseRunMode(rawMode)
	if !hasMode {
		return skip("invalid mode")
	}

	source, ok := coerce.String(coerce.FirstOf(row, "source"))
	if !ok {
		source = defaultPipelineSource
	}

	inserted, err := i.runs.Upsert(ctx, monitor.PipelineRun{
		RunAt:            *runAt,
		Mode:             mode,
		FetchedCount:     coerce.Int(coerce.FirstOf(row, "fetched_count"), 0),
		SignificantCount: coerce.Int(coerce.FirstOf(row, "significant_count"), 0),
		ReportedCount:    coerce.Int(coerce.FirstOf(row, "reported_count"), 0),
		Note:             coerce.StringPtr(coerce.FirstOf(row, "note")),
		Source:           source,
	})
	if err != nil {
		return 0, err
	}
	if inserted {
		return rowInserted, nil
	}
	return rowUpdated, nil
}

func (i *Importer) importEmbedding(ctx context.Context, row map[string]any) (rowOutcome, error) {
	statusID, _ := coerce.String(coerce.FirstOf(row, "status_id"))
	backend, _ := coerce.String(coerce.FirstOf(row, "backend"))
	model, _ := coerce.String(coerce.FirstOf(row, "model"))
	textHash, _ := coerce.String(coerce.FirstOf(row, "text_hash"))
	if statusID == "" || backend == "" || model == "" || textHash == "" {
		return skip("missing required embedding fields")
	}

	createdAt, err := coerce.Timestamp(coerce.FirstOf(row, "created_at"), true)
	if err != nil {
		return 0, err
	}
	updatedAt, err := coerce.Timestamp(coerce.FirstOf(row, "updated_at", "created_at"), true)
	if err != nil {
		return 0, err
	}
	vector, err := coerce.Vector(coerce.FirstOf(row, "vector_json"))
	if err != nil {
		return 0, err
	}

	dims := coerce.Int(coerce.FirstOf(row, "dims"), 0)
	if dims <= 0 {
		dims = len(vector)
	}

	inserted, err := i.embeddings.Upsert(ctx, monitor.Embedding{
		StatusID:  statusID,
		Backend:   backend,
		Model:     model,
		Dims:      dims,
		Vector:    vector,
		TextHash:  textHash,
		CreatedAt: *createdAt,
		UpdatedAt: *updatedAt,
	})
	if err != nil {
		return 0, err
	}
	if inserted {
		return rowInserted, nil
	}
	return rowUpdated, nil
}
