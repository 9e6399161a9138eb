package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/infrastructure/persistence"
	"github.com/paulbrigner/xmonitor/infrastructure/sqlitesource"
	"github.com/paulbrigner/xmonitor/internal/coerce"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/log"
)

// CountPair compares one table's row count between source and
// destination. SQLite and Delta are null for destination-only tables.
type CountPair struct {
	SQLite   *int64 `json:"sqlite"`
	Postgres int64  `json:"postgres"`
	Delta    *int64 `json:"delta"`
}

// FieldMismatch is one differing field of a spot-checked post.
type FieldMismatch struct {
	Field    string `json:"field"`
	Local    any    `json:"local"`
	Postgres any    `json:"postgres"`
}

// PostMismatch collects the differing fields of one post.
type PostMismatch struct {
	StatusID string          `json:"status_id"`
	Fields   []FieldMismatch `json:"fields"`
}

// SpotCheck reports the randomized field-level comparison.
type SpotCheck struct {
	Requested   int            `json:"requested"`
	Checked     int            `json:"checked"`
	MissingInPG []string       `json:"missing_in_pg"`
	Mismatches  []PostMismatch `json:"mismatches"`
}

// ValidationReport is the validate command's stdout payload.
type ValidationReport struct {
	Counts    map[string]CountPair `json:"counts"`
	SpotCheck SpotCheck            `json:"spot_check"`
}

// Clean reports whether the destination passed both the spot check's
// presence and field comparisons. Count deltas alone do not fail a run;
// they are surfaced for the operator to judge.
func (r ValidationReport) Clean() bool {
	return len(r.SpotCheck.MissingInPG) == 0 && len(r.SpotCheck.Mismatches) == 0
}

// legacyToDestination maps each legacy table to its destination table name.
var legacyToDestination = map[string]string{
	sqlitesource.TableTweets:        "posts",
	sqlitesource.TableReports:       "reports",
	sqlitesource.TableWatchAccounts: "watch_accounts",
	sqlitesource.TableRuns:          "pipeline_runs",
	sqlitesource.TableEmbeddings:    "embeddings",
}

// Validator compares the migrated destination against the legacy SQLite
// snapshot: per-table counts plus a randomized post spot check.
type Validator struct {
	source     *sqlitesource.Source
	accounts   *persistence.WatchAccountStore
	posts      *persistence.PostStore
	reports    *persistence.ReportStore
	runs       *persistence.PipelineRunStore
	embeddings *persistence.EmbeddingStore
	snapshots  *persistence.MetricsSnapshotStore
	logger     *log.Logger
}

// NewValidator creates a validator over the given source and destination.
func NewValidator(source *sqlitesource.Source, db database.Database, logger *log.Logger) *Validator {
	return &Validator{
		source:     source,
		accounts:   persistence.NewWatchAccountStore(db),
		posts:      persistence.NewPostStore(db),
		reports:    persistence.NewReportStore(db),
		runs:       persistence.NewPipelineRunStore(db),
		embeddings: persistence.NewEmbeddingStore(db),
		snapshots:  persistence.NewMetricsSnapshotStore(db),
		logger:     logger,
	}
}

// Run builds the full validation report.
func (v *Validator) Run(ctx context.Context, sampleSize int) (ValidationReport, error) {
	report := ValidationReport{Counts: make(map[string]CountPair)}

	destCounts := map[string]func(context.Context) (int64, error){
		sqlitesource.TableTweets:        func(ctx context.Context) (int64, error) { return v.posts.Count(ctx) },
		sqlitesource.TableReports:       func(ctx context.Context) (int64, error) { return v.reports.Count(ctx) },
		sqlitesource.TableWatchAccounts: func(ctx context.Context) (int64, error) { return v.accounts.Count(ctx) },
		sqlitesource.TableRuns:          func(ctx context.Context) (int64, error) { return v.runs.Count(ctx) },
		sqlitesource.TableEmbeddings:    func(ctx context.Context) (int64, error) { return v.embeddings.Count(ctx) },
	}

	for _, table := range sqlitesource.Tables {
		local, err := v.source.Count(ctx, table)
		if err != nil {
			return report, err
		}
		remote, err := destCounts[table](ctx)
		if err != nil {
			return report, err
		}
		delta := remote - local
		report.Counts[table] = CountPair{SQLite: &local, Postgres: remote, Delta: &delta}
	}

	snapshotCount, err := v.snapshots.Count(ctx)
	if err != nil {
		return report, err
	}
	report.Counts["post_metrics_snapshots"] = CountPair{Postgres: snapshotCount}

	report.SpotCheck, err = v.spotCheck(ctx, sampleSize)
	if err != nil {
		return report, err
	}
	return report, nil
}

// spotCheck compares a random sample of posts field by field.
func (v *Validator) spotCheck(ctx context.Context, sampleSize int) (SpotCheck, error) {
	check := SpotCheck{
		Requested:   max(sampleSize, 0),
		MissingInPG: []string{},
		Mismatches:  []PostMismatch{},
	}
	if check.Requested == 0 {
		return check, nil
	}

	ids, err := v.source.StatusIDs(ctx)
	if err != nil {
		return check, err
	}
	if len(ids) == 0 {
		return check, nil
	}

	if check.Requested < len(ids) {
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		ids = ids[:check.Requested]
	}
	check.Checked = len(ids)

	for _, statusID := range ids {
		local, err := v.source.Tweet(ctx, statusID)
		if err != nil {
			return check, err
		}

		remote, err := v.posts.FindOne(ctx, monitor.WithStatusID(statusID))
		if errors.Is(err, database.ErrNotFound) {
			check.MissingInPG = append(check.MissingInPG, statusID)
			continue
		}
		if err != nil {
			return check, err
		}

		if fields := comparePost(statusID, local, remote); len(fields) > 0 {
			check.Mismatches = append(check.Mismatches, PostMismatch{StatusID: statusID, Fields: fields})
		}
	}
	return check, nil
}

// comparePost checks the stable, comparable fields of one post.
func comparePost(statusID string, local map[string]any, remote monitor.Post) []FieldMismatch {
	var fields []FieldMismatch

	localURL, _ := coerce.String(coerce.FirstOf(local, "url", "status_url", "tweet_url"))
	if localURL != remote.URL {
		fields = append(fields, FieldMismatch{Field: "url", Local: localURL, Postgres: remote.URL})
	}

	localHandle, ok := coerce.String(coerce.FirstOf(local, "author_handle", "handle", "author", "username"))
	if ok {
		localHandle, _ = monitor.NormalizeHandle(localHandle)
	}
	remoteHandle, _ := monitor.NormalizeHandle(remote.AuthorHandle)
	if localHandle != remoteHandle {
		fields = append(fields, FieldMismatch{Field: "author_handle", Local: localHandle, Postgres: remoteHandle})
	}

	localBody := coerce.StringPtr(coerce.FirstOf(local, "body_text", "text", "tweet_text", "content"))
	if !equalStringPtr(localBody, remote.BodyText) {
		fields = append(fields, FieldMismatch{Field: "body_text", Local: derefAny(localBody), Postgres: derefAny(remote.BodyText)})
	}

	localSig := coerce.Bool(coerce.FirstOf(local, "is_significant", "significant"), false)
	if localSig != remote.IsSignificant {
		fields = append(fields, FieldMismatch{Field: "is_significant", Local: localSig, Postgres: remote.IsSignificant})
	}

	localDiscovered, err := coerce.Timestamp(coerce.FirstOf(local, "discovered_at", "captured_at", "created_at"), false)
	remoteDiscovered := remote.DiscoveredAt.UTC()
	switch {
	case err != nil || localDiscovered == nil:
		fields = append(fields, FieldMismatch{
			Field:    "discovered_at",
			Local:    nil,
			Postgres: remoteDiscovered.Format(time.RFC3339Nano),
		})
	case !localDiscovered.Equal(remoteDiscovered):
		fields = append(fields, FieldMismatch{
			Field:    "discovered_at",
			Local:    localDiscovered.Format(time.RFC3339Nano),
			Postgres: remoteDiscovered.Format(time.RFC3339Nano),
		})
	}

	return fields
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefAny(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
